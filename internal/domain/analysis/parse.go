package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/sect/internal/domain/model"
)

// StripFences removes a surrounding Markdown code fence (``` or ```json) if present.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResponse decodes a model answer into a disciple with a fresh id.
// The fingerprint is left empty; the pipeline assigns it.
func ParseResponse(text string) (model.Disciple, error) {
	payload := StripFences(text)
	if payload == "" {
		return model.Disciple{}, fmt.Errorf("%w: empty payload", ErrInvalidResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return model.Disciple{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := requirePresent(fields, requiredFields, ""); err != nil {
		return model.Disciple{}, err
	}
	var stats map[string]json.RawMessage
	if err := json.Unmarshal(fields["stats"], &stats); err != nil {
		return model.Disciple{}, fmt.Errorf("%w: stats: %w", ErrInvalidResponse, err)
	}
	if err := requirePresent(stats, requiredStats, "stats."); err != nil {
		return model.Disciple{}, err
	}

	var d model.Disciple
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return model.Disciple{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := Validate(d); err != nil {
		return model.Disciple{}, err
	}

	d.ID = uuid.NewString()
	d.ImageHash = ""
	return d, nil
}

func requirePresent(fields map[string]json.RawMessage, keys []string, prefix string) error {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("%w: missing field %s%s", ErrInvalidResponse, prefix, k)
		}
	}
	return nil
}

// Validate checks enum membership and the required trait and skill fields.
func Validate(d model.Disciple) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidResponse)
	}
	if !d.PrimaryElement.Valid() {
		return fmt.Errorf("%w: unknown element %q", ErrInvalidResponse, d.PrimaryElement)
	}
	if !d.Verdict.Valid() {
		return fmt.Errorf("%w: unknown verdict %q", ErrInvalidResponse, d.Verdict)
	}
	if !d.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidResponse, d.Role)
	}
	for i, t := range d.Traits {
		if t.Name == "" {
			return fmt.Errorf("%w: trait %d has no name", ErrInvalidResponse, i)
		}
		if !t.Tier.Valid() {
			return fmt.Errorf("%w: trait %q has unknown tier %q", ErrInvalidResponse, t.Name, t.Tier)
		}
	}
	for i, s := range d.Skills {
		if s.Name == "" {
			return fmt.Errorf("%w: skill %d has no name", ErrInvalidResponse, i)
		}
	}
	return nil
}
