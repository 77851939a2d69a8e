package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/sect/internal/adapters/mq/queue"
	"github.com/okian/sect/internal/domain/ingest"
	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/internal/domain/roster"
	"github.com/okian/sect/pkg/logger"
)

// ingestHost connects the worker to the active roster and the job registry.
type ingestHost struct {
	s *Service
}

// Prepare implements worker.Target.
func (h *ingestHost) Prepare(_ context.Context, t queue.Task) (ingest.Batch, ingest.Sink, error) {
	r, err := h.s.current()
	if err != nil {
		return ingest.Batch{}, nil, err
	}
	if r.Name() != t.Profile {
		return ingest.Batch{}, nil, fmt.Errorf("%w: job targets %q", ErrNoActiveProfile, t.Profile)
	}

	// A failed save keeps the record in memory; the next successful save persists it.
	sink := ingest.SinkFunc(func(ctx context.Context, d model.Disciple) error {
		if err := r.Add(ctx, d); err != nil && !errors.Is(err, roster.ErrPersist) {
			return err
		}
		return nil
	})
	return ingest.Batch{
		Files:       t.Files,
		Seen:        r.Seen(),
		Instruction: r.Instruction(),
	}, sink, nil
}

// Started implements worker.Tracker.
func (h *ingestHost) Started(ctx context.Context, id string) {
	h.s.jobs.update(id, func(j *Job) { j.State = JobRunning })
	h.s.logger.Debug(ctx, "batch started", logger.String("job", id))
}

// Progress implements worker.Tracker.
func (h *ingestHost) Progress(id string, p ingest.Progress) {
	h.s.jobs.update(id, func(j *Job) { j.Progress = p })
}

// Finished implements worker.Tracker.
func (h *ingestHost) Finished(_ context.Context, id string, r ingest.Report, err error) {
	at := h.s.now().UTC()
	h.s.jobs.update(id, func(j *Job) {
		j.FinishedAt = &at
		j.Items = r.Items
		if r.Progress.Total > 0 {
			j.Progress = r.Progress
		}
		if err != nil {
			j.State = JobFailed
			j.Error = err.Error()
			return
		}
		j.State = JobDone
	})
}
