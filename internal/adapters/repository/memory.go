package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/sect/internal/domain/profile"
)

type memoryRecord struct {
	doc       []byte
	size      int
	limit     int
	updatedAt time.Time
}

// MemoryStore is a map-backed Store used by tests and by runs without a database path.
// Profiles are kept encoded so callers never share roster slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]memoryRecord
	settings map[string]string
	now      func() time.Time
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		profiles: make(map[string]memoryRecord),
		settings: make(map[string]string),
		now:      o.now,
	}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string) (profile.Snapshot, error) {
	name, err := normalizeName(name)
	if err != nil {
		return profile.Snapshot{}, err
	}
	s.mu.RLock()
	rec, ok := s.profiles[name]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return profile.Snapshot{}, ErrClosed
	}
	if !ok {
		return profile.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return profile.Parse(rec.doc)
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, name string, snap profile.Snapshot) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	doc, err := profile.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.profiles[name] = memoryRecord{doc: doc, size: len(snap.Disciples), limit: snap.Limit, updatedAt: s.now().UTC()}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]ProfileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]ProfileInfo, 0, len(s.profiles))
	for name, rec := range s.profiles {
		out = append(out, ProfileInfo{Name: name, Size: rec.size, Limit: rec.limit, UpdatedAt: rec.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.profiles, name)
	return nil
}

// Setting implements Store.
func (s *MemoryStore) Setting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrClosed
	}
	v, ok := s.settings[key]
	if !ok {
		return "", fmt.Errorf("%w: setting %s", ErrNotFound, key)
	}
	return v, nil
}

// SetSetting implements Store.
func (s *MemoryStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.settings[key] = value
	return nil
}

// Close marks the store closed; later calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
