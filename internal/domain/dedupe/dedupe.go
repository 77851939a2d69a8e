// Package dedupe fingerprints uploaded images and tracks which fingerprints
// a batch has already accounted for.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen fingerprints so each image is analyzed at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if fp was seen and records it if not.
	// Returns true if fp was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, fp string) bool

	// Unrecord forgets fp, allowing the same image to be uploaded again.
	Unrecord(ctx context.Context, fp string)

	Size() int64
}

// inMemoryDeduper is a mutex-guarded set. Roster sizes are small, so there is no eviction.
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
	size atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{seen: make(map[string]struct{})}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, fp string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[fp]; exists {
		return true
	}
	d.seen[fp] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, fp string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[fp]; exists {
		delete(d.seen, fp)
		d.size.Add(-1)
	}
}

// Size returns the number of recorded fingerprints.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
