package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithSeed pre-records fingerprints, typically those already present in the roster.
// Empty fingerprints are skipped; records imported without an image hash carry none.
func WithSeed(fps ...string) Option {
	return func(d *inMemoryDeduper) {
		for _, fp := range fps {
			if fp == "" {
				continue
			}
			if _, exists := d.seen[fp]; !exists {
				d.seen[fp] = struct{}{}
				d.size.Add(1)
			}
		}
	}
}
