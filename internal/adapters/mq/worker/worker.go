// Package worker consumes queued upload batches and runs them through the
// ingestion pipeline one at a time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/sect/internal/adapters/mq/queue"
	"github.com/okian/sect/internal/domain/ingest"
	"github.com/okian/sect/pkg/logger"
	"github.com/okian/sect/pkg/metrics"
)

// Batch terminal states reported to metrics.
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// Pipeline runs one batch.
type Pipeline interface {
	Run(ctx context.Context, b ingest.Batch, sink ingest.Sink, observe ingest.Observer) (ingest.Report, error)
}

// Target resolves what a task runs against: the fingerprints and instruction
// of its roster and the sink that receives accepted records.
type Target interface {
	Prepare(ctx context.Context, t queue.Task) (ingest.Batch, ingest.Sink, error)
}

// Tracker receives the lifecycle of each job.
type Tracker interface {
	Started(ctx context.Context, jobID string)
	Progress(jobID string, p ingest.Progress)
	Finished(ctx context.Context, jobID string, r ingest.Report, err error)
}

// Queue defines how the worker receives tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes tasks until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the task in flight, if any, returns.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker on top of a Queue.
type InMemoryWorker struct {
	queue    Queue
	pipeline Pipeline
	target   Target
	tracker  Tracker
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Pipeline, target Target, tracker Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		pipeline: p,
		target:   target,
		tracker:  tracker,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			if err := w.processTask(ctx, t); err != nil {
				w.logger.Error(ctx, "error processing batch", logger.String("job", t.JobID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processTask runs a single batch and always reports it finished.
func (w *InMemoryWorker) processTask(ctx context.Context, t queue.Task) (err error) {
	start := time.Now()
	defer removeFiles(ctx, w.logger, t.Files)

	var report ingest.Report
	defer func() {
		state := StateCompleted
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			state = StateCancelled
		case err != nil:
			state = StateFailed
		}
		metrics.RecordBatchCompleted(state, time.Since(start).Seconds())
		w.tracker.Finished(ctx, t.JobID, report, err)
	}()

	w.tracker.Started(ctx, t.JobID)

	batch, sink, err := w.target.Prepare(ctx, t)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "prepare")
		return fmt.Errorf("prepare job %s: %w", t.JobID, err)
	}

	report, err = w.pipeline.Run(ctx, batch, sink, func(p ingest.Progress) {
		w.tracker.Progress(t.JobID, p)
	})
	for _, item := range report.Items {
		metrics.RecordIngestOutcome(string(item.Outcome))
	}
	if err != nil {
		return fmt.Errorf("run job %s: %w", t.JobID, err)
	}

	w.logger.Info(ctx, "batch processed",
		logger.String("job", t.JobID),
		logger.String("profile", t.Profile),
		logger.Int("success", report.Progress.Success),
		logger.Int("duplicates", report.Progress.Duplicates),
		logger.Int("failed", report.Progress.Failed),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// removeFiles deletes spooled uploads once their batch is done.
func removeFiles(ctx context.Context, log logger.Logger, files []ingest.File) {
	for _, f := range files {
		r, ok := f.(interface{ Remove() error })
		if !ok {
			continue
		}
		if err := r.Remove(); err != nil {
			log.Warn(ctx, "spool cleanup failed", logger.String("file", f.Name()), logger.Error(err))
		}
	}
}

// MeteredSleeper records every pipeline wait before delegating to next.
func MeteredSleeper(next ingest.Sleeper) ingest.Sleeper {
	return ingest.SleeperFunc(func(ctx context.Context, d time.Duration) error {
		metrics.RecordWait(d.Seconds())
		return next.Sleep(ctx, d)
	})
}
