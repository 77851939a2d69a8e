package ingest

import (
	"time"

	"github.com/okian/sect/pkg/logger"
)

const (
	defaultMaxAttempts = 4
	defaultBackoffBase = 10 * time.Second
	defaultPacing      = 2 * time.Second
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxAttempts sets the number of analysis attempts per item.
func WithMaxAttempts(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the first rate-limit wait; attempt n waits base*2^(n-1).
func WithBackoffBase(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.backoffBase = d
		}
	}
}

// WithPacing sets the wait between two consecutive items.
func WithPacing(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.pacing = d
		}
	}
}

// WithSleeper replaces the real timer, mostly for tests.
func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sleeper = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}
