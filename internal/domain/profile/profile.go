// Package profile encodes the persisted shape of a roster profile and parses
// imported files, including the legacy bare-array form.
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/model"
)

// DefaultLimit is the roster cap of a profile that does not specify one.
const DefaultLimit = 50

// ErrFormat is returned when an imported document is not a profile.
var ErrFormat = errors.New("invalid profile format")

// Snapshot is everything stored under a profile name.
type Snapshot struct {
	Limit       int              `json:"limit"`
	Disciples   []model.Disciple `json:"disciples"`
	Instruction string           `json:"instruction"`
}

// New returns an empty profile with the given limit and the default instruction.
func New(limit int) Snapshot {
	return Snapshot{
		Limit:       ClampLimit(limit),
		Disciples:   []model.Disciple{},
		Instruction: analysis.DefaultInstruction,
	}
}

// ClampLimit raises limits below one to one.
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	return limit
}

// Parse decodes a stored or imported profile. A bare JSON array is read as a
// legacy roster with the default limit and instruction.
func Parse(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Snapshot{}, fmt.Errorf("%w: empty document", ErrFormat)
	}

	if trimmed[0] == '[' {
		var list []model.Disciple
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		s := New(DefaultLimit)
		s.Disciples = list
		return s, nil
	}

	var raw struct {
		Limit       *int            `json:"limit"`
		Disciples   json.RawMessage `json:"disciples"`
		Instruction *string         `json:"instruction"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	d := bytes.TrimSpace(raw.Disciples)
	if len(d) == 0 || d[0] != '[' {
		return Snapshot{}, fmt.Errorf("%w: disciples must be an array", ErrFormat)
	}

	s := New(DefaultLimit)
	if err := json.Unmarshal(d, &s.Disciples); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if raw.Limit != nil && *raw.Limit > 0 {
		s.Limit = *raw.Limit
	}
	if raw.Instruction != nil && strings.TrimSpace(*raw.Instruction) != "" {
		s.Instruction = *raw.Instruction
	}
	return s, nil
}

// Marshal renders s as indented JSON, the export format.
func Marshal(s Snapshot) ([]byte, error) {
	if s.Disciples == nil {
		s.Disciples = []model.Disciple{}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return b, nil
}

// NameFromFile derives a profile name from an import file name.
func NameFromFile(filename string) string {
	base := filepath.Base(filename)
	if strings.EqualFold(filepath.Ext(base), ".json") {
		base = base[:len(base)-len(filepath.Ext(base))]
	}
	return strings.TrimSpace(base)
}

// Fingerprints returns the non-empty fingerprints of the roster.
func (s Snapshot) Fingerprints() []string {
	out := make([]string, 0, len(s.Disciples))
	for _, d := range s.Disciples {
		if d.ImageHash != "" {
			out = append(out, d.ImageHash)
		}
	}
	return out
}
