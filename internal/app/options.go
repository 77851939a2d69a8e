package service

import (
	"time"

	"github.com/okian/sect/internal/adapters/repository"
	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/ingest"
	"github.com/okian/sect/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the profile repository. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithAnalyzer sets the image analyzer used by the ingestion pipeline.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithQueueSize sets how many batches may wait for the worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxBatchSize caps the number of files in one upload.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= ingest.MaxBatchSize {
			s.maxBatch = n
		}
	}
}

// WithDefaultLimit sets the roster limit of newly created profiles.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithPipelineOptions forwards options to the ingestion pipeline.
func WithPipelineOptions(opts ...ingest.Option) Option {
	return func(s *Service) {
		s.pipelineOpts = append(s.pipelineOpts, opts...)
	}
}

// WithJobRetention sets how many finished jobs stay queryable.
func WithJobRetention(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.jobs.retain = n
		}
	}
}

// WithClock overrides the clock used to stamp jobs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
