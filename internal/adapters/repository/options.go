package repository

import (
	"time"

	"github.com/okian/sect/pkg/logger"
)

// Option applies a configuration option to a Store implementation.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger logger.Logger
}

func defaultOptions() options {
	return options{now: time.Now}
}

// WithClock overrides the clock used to stamp saved profiles.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for storage diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
