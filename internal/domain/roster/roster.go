// Package roster holds the active profile in memory and writes a full
// snapshot through a Persister after every mutation.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/dedupe"
	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/internal/domain/profile"
	"github.com/okian/sect/pkg/logger"
)

// ErrPersist wraps a failed snapshot save. The in-memory change is kept.
var ErrPersist = errors.New("persist profile")

// Persister stores profile snapshots by name.
type Persister interface {
	Save(ctx context.Context, name string, s profile.Snapshot) error
}

// Option configures a Store.
type Option func(*Store)

// WithSizeObserver is called with the roster length after every mutation.
func WithSizeObserver(fn func(int)) Option {
	return func(s *Store) { s.onSize = fn }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store is the active roster. Reads return copies; mutations are serialized.
type Store struct {
	mu      sync.RWMutex
	name    string
	snap    profile.Snapshot
	persist Persister
	seen    dedupe.Deduper
	onSize  func(int)
	log     logger.Logger
}

// New wraps snap as the active roster of profile name.
func New(name string, snap profile.Snapshot, p Persister, opts ...Option) *Store {
	snap.Limit = profile.ClampLimit(snap.Limit)
	if snap.Disciples == nil {
		snap.Disciples = []model.Disciple{}
	}
	s := &Store{
		name:    name,
		snap:    snap,
		persist: p,
		seen:    dedupe.NewInMemoryDeduper(dedupe.WithSeed(snap.Fingerprints()...)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("roster")
	}
	if s.onSize != nil {
		s.onSize(len(snap.Disciples))
	}
	return s
}

// Name returns the profile name.
func (s *Store) Name() string { return s.name }

// Snapshot returns a deep copy of the profile.
func (s *Store) Snapshot() profile.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() profile.Snapshot {
	c := s.snap
	c.Disciples = model.CloneAll(s.snap.Disciples)
	return c
}

// Disciples returns a copy of the roster, newest first.
func (s *Store) Disciples() []model.Disciple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneAll(s.snap.Disciples)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.Disciples)
}

// Limit returns the capacity limit.
func (s *Store) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Limit
}

// Instruction returns the analysis instruction of the profile.
func (s *Store) Instruction() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Instruction
}

// Seen returns the fingerprint set of the roster. Deleting or clearing
// records removes their fingerprints so the same images can be uploaded again.
func (s *Store) Seen() dedupe.Deduper { return s.seen }

// forgetLocked unrecords fp unless another record still carries it.
func (s *Store) forgetLocked(ctx context.Context, fp string) {
	if fp == "" {
		return
	}
	for i := range s.snap.Disciples {
		if s.snap.Disciples[i].ImageHash == fp {
			return
		}
	}
	s.seen.Unrecord(ctx, fp)
}

// mutate applies fn under the write lock and saves the result.
func (s *Store) mutate(ctx context.Context, op string, fn func(*profile.Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.snap)
	if s.onSize != nil {
		s.onSize(len(s.snap.Disciples))
	}
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(ctx, s.name, s.copyLocked()); err != nil {
		s.log.Error(ctx, "profile save failed",
			logger.String("profile", s.name),
			logger.String("op", op),
			logger.Error(err))
		return fmt.Errorf("%w %q: %w", ErrPersist, s.name, err)
	}
	return nil
}

// Add prepends d. It satisfies ingest.Sink.
func (s *Store) Add(ctx context.Context, d model.Disciple) error {
	return s.mutate(ctx, "add", func(p *profile.Snapshot) {
		p.Disciples = append([]model.Disciple{d.Clone()}, p.Disciples...)
		if d.ImageHash != "" {
			s.seen.SeenAndRecord(ctx, d.ImageHash)
		}
	})
}

// Delete removes the record with id. It reports whether a record was removed;
// an unknown id is a no-op and nothing is saved.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	idx := s.indexLocked(id)
	s.mu.RUnlock()
	if idx < 0 {
		return false, nil
	}

	removed := false
	err := s.mutate(ctx, "delete", func(p *profile.Snapshot) {
		for i := range p.Disciples {
			if p.Disciples[i].ID == id {
				fp := p.Disciples[i].ImageHash
				p.Disciples = append(p.Disciples[:i:i], p.Disciples[i+1:]...)
				s.forgetLocked(ctx, fp)
				removed = true
				return
			}
		}
	})
	return removed, err
}

func (s *Store) indexLocked(id string) int {
	for i := range s.snap.Disciples {
		if s.snap.Disciples[i].ID == id {
			return i
		}
	}
	return -1
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func(p *profile.Snapshot) {
		old := p.Fingerprints()
		p.Disciples = []model.Disciple{}
		for _, fp := range old {
			s.seen.Unrecord(ctx, fp)
		}
	})
}

// Replace swaps the whole profile, as an import does.
func (s *Store) Replace(ctx context.Context, snap profile.Snapshot) error {
	snap.Limit = profile.ClampLimit(snap.Limit)
	snap.Disciples = model.CloneAll(snap.Disciples)
	if snap.Disciples == nil {
		snap.Disciples = []model.Disciple{}
	}
	return s.mutate(ctx, "replace", func(p *profile.Snapshot) {
		for _, fp := range p.Fingerprints() {
			s.seen.Unrecord(ctx, fp)
		}
		*p = snap
		for _, fp := range p.Fingerprints() {
			s.seen.SeenAndRecord(ctx, fp)
		}
	})
}

// SetLimit sets the capacity limit, clamped to at least one, and returns the stored value.
func (s *Store) SetLimit(ctx context.Context, limit int) (int, error) {
	limit = profile.ClampLimit(limit)
	return limit, s.mutate(ctx, "limit", func(p *profile.Snapshot) { p.Limit = limit })
}

// SetInstruction stores a custom instruction. Blank text restores the default.
func (s *Store) SetInstruction(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		text = analysis.DefaultInstruction
	}
	return s.mutate(ctx, "instruction", func(p *profile.Snapshot) { p.Instruction = text })
}

// ResetInstruction restores the default instruction.
func (s *Store) ResetInstruction(ctx context.Context) error {
	return s.SetInstruction(ctx, "")
}
