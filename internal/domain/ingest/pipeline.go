package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/dedupe"
	"github.com/okian/sect/pkg/logger"
)

// Pipeline processes upload batches. It holds no per-batch state, but a single
// Pipeline must not run two batches concurrently against the same roster.
type Pipeline struct {
	analyzer    analysis.Analyzer
	sleeper     Sleeper
	maxAttempts int
	backoffBase time.Duration
	pacing      time.Duration
	log         logger.Logger
}

// New creates a pipeline around an analyzer.
func New(a analysis.Analyzer, opts ...Option) *Pipeline {
	p := &Pipeline{
		analyzer:    a,
		sleeper:     TimerSleeper(),
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		pacing:      defaultPacing,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Named("ingest")
	}
	return p
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p *Pipeline) Backoff(attempt int) time.Duration {
	return p.backoffBase << (attempt - 1)
}

type workItem struct {
	index int
	file  File
	fp    string
}

// run carries the mutable state of one batch.
type run struct {
	progress Progress
	items    []ItemResult
	observe  Observer
}

func (r *run) resolve(index int, res ItemResult) {
	r.items[index] = res
	r.progress.Current++
	switch res.Outcome {
	case OutcomeSuccess:
		r.progress.Success++
	case OutcomeDuplicate:
		r.progress.Duplicates++
	case OutcomeFailed:
		r.progress.Failed++
	}
	r.emit()
}

func (r *run) emit() {
	if r.observe != nil {
		r.observe(r.progress)
	}
}

func (r *run) report() Report {
	return Report{Progress: r.progress, Items: r.items}
}

// Run processes b and hands every accepted record to sink in processing order.
// The returned error is non-nil only when ctx ends the run early; in that case
// every unresolved item is counted as failed.
func (p *Pipeline) Run(ctx context.Context, b Batch, sink Sink, observe Observer) (Report, error) {
	r := &run{
		progress: Progress{Total: len(b.Files)},
		items:    make([]ItemResult, len(b.Files)),
		observe:  observe,
	}
	r.emit()

	seen := b.Seen
	if seen == nil {
		seen = dedupe.NewInMemoryDeduper(dedupe.WithSeed(b.Existing...))
	}
	work := p.dedupe(ctx, b.Files, seen, r)

	for i, w := range work {
		if err := ctx.Err(); err != nil {
			p.abandon(ctx, work[i:], seen, r, err)
			return r.report(), err
		}

		res, err := p.analyze(ctx, w, b.Instruction, sink)
		if err != nil {
			p.abandon(ctx, work[i:], seen, r, err)
			return r.report(), err
		}
		if res.Outcome == OutcomeFailed {
			seen.Unrecord(ctx, w.fp)
		}
		r.resolve(w.index, res)

		if i < len(work)-1 && p.pacing > 0 {
			if err := p.sleeper.Sleep(ctx, p.pacing); err != nil {
				p.abandon(ctx, work[i+1:], seen, r, err)
				return r.report(), err
			}
		}
	}

	p.log.Info(ctx, "batch finished",
		logger.Int("total", r.progress.Total),
		logger.Int("success", r.progress.Success),
		logger.Int("duplicates", r.progress.Duplicates),
		logger.Int("failed", r.progress.Failed))
	return r.report(), nil
}

// dedupe hashes every file and returns the items that need analysis.
func (p *Pipeline) dedupe(ctx context.Context, files []File, seen dedupe.Deduper, r *run) []workItem {
	work := make([]workItem, 0, len(files))
	for i, f := range files {
		if rej, ok := f.(Rejected); ok {
			p.log.Warn(ctx, "file rejected", logger.String("file", rej.FileName), logger.Error(rej.Err))
			r.resolve(i, ItemResult{File: rej.FileName, Outcome: OutcomeFailed, Error: rej.Err.Error()})
			continue
		}
		fp, err := fingerprint(f)
		if err != nil {
			p.log.Warn(ctx, "hash failed", logger.String("file", f.Name()), logger.Error(err))
			r.resolve(i, ItemResult{File: f.Name(), Outcome: OutcomeFailed, Error: err.Error()})
			continue
		}
		if seen.SeenAndRecord(ctx, fp) {
			r.resolve(i, ItemResult{File: f.Name(), Fingerprint: fp, Outcome: OutcomeDuplicate})
			continue
		}
		work = append(work, workItem{index: i, file: f, fp: fp})
	}
	return work
}

func fingerprint(f File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %w", dedupe.ErrHash, err)
	}
	defer rc.Close()
	return dedupe.Fingerprint(rc)
}

func readAll(f File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// analyze drives one item through Attempting, RetryWait and a terminal state.
// A non-nil error means the run was interrupted while the item was in flight.
func (p *Pipeline) analyze(ctx context.Context, w workItem, instruction string, sink Sink) (ItemResult, error) {
	res := ItemResult{File: w.file.Name(), Fingerprint: w.fp}
	fail := func(err error) (ItemResult, error) {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		p.log.Warn(ctx, "item failed",
			logger.String("file", res.File),
			logger.Int("attempts", res.Attempts),
			logger.Error(err))
		return res, nil
	}

	image, err := readAll(w.file)
	if err != nil {
		return fail(err)
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		res.Attempts = attempt
		d, err := p.analyzer.Analyze(ctx, image, instruction)
		if err == nil {
			d.ImageHash = w.fp
			if err := sink.Add(ctx, d); err != nil {
				return fail(err)
			}
			res.Outcome = OutcomeSuccess
			res.DiscipleID = d.ID
			return res, nil
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if !analysis.IsRetryable(err) {
			return fail(err)
		}
		if attempt == p.maxAttempts {
			return fail(fmt.Errorf("%w: %w", ErrRetriesExhausted, err))
		}

		wait := p.Backoff(attempt)
		p.log.Info(ctx, "rate limited, backing off",
			logger.String("file", res.File),
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait))
		if err := p.sleeper.Sleep(ctx, wait); err != nil {
			return res, err
		}
	}
	return fail(errors.New("no attempts configured"))
}

// abandon marks the remaining items failed after cancellation and releases
// their fingerprints so they can be uploaded again.
func (p *Pipeline) abandon(ctx context.Context, rest []workItem, seen dedupe.Deduper, r *run, cause error) {
	for _, w := range rest {
		seen.Unrecord(ctx, w.fp)
		r.resolve(w.index, ItemResult{
			File:        w.file.Name(),
			Fingerprint: w.fp,
			Outcome:     OutcomeFailed,
			Error:       cause.Error(),
		})
	}
}
