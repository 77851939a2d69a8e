// Package ingest runs an upload batch through fingerprint dedup and a strictly
// sequential, rate-limit aware analysis loop.
//
// A batch is processed in two phases. The dedup phase hashes every file and
// drops those already in the roster or repeated within the batch before any
// analysis call is made. The analysis phase then handles the remaining files
// one at a time; rate-limited attempts are retried after an exponential
// backoff and consecutive items are separated by a fixed pacing wait.
package ingest

import (
	"context"
	"io"

	"github.com/okian/sect/internal/domain/dedupe"
	"github.com/okian/sect/internal/domain/model"
)

// MaxBatchSize is the largest number of files a caller may submit at once.
// Callers enforce it before Run.
const MaxBatchSize = 100

// File is one uploaded image. Open may be called more than once.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Batch is the input of one pipeline run.
type Batch struct {
	Files []File
	// Existing holds the fingerprints already present in the roster.
	// It is ignored when Seen is set.
	Existing []string
	// Seen is the roster's fingerprint set. Fingerprints of items that end
	// failed are removed from it again. When nil, a set private to the run
	// is built from Existing.
	Seen dedupe.Deduper
	// Instruction is passed to the analyzer verbatim; blank means default.
	Instruction string
}

// Sink receives accepted records in processing order.
type Sink interface {
	Add(ctx context.Context, d model.Disciple) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, d model.Disciple) error

// Add calls f.
func (f SinkFunc) Add(ctx context.Context, d model.Disciple) error { return f(ctx, d) }

// Progress counts resolved items. When a run returns,
// Success+Duplicates+Failed == Total == Current.
type Progress struct {
	Total      int `json:"total"`
	Current    int `json:"current"`
	Success    int `json:"success"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Done reports whether every item has been resolved.
func (p Progress) Done() bool { return p.Current == p.Total }

// Observer receives a progress snapshot initially and after every change.
type Observer func(Progress)

// Outcome is the terminal state of one item.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult describes how one file was resolved.
type ItemResult struct {
	File        string  `json:"file"`
	Fingerprint string  `json:"fingerprint,omitempty"`
	Outcome     Outcome `json:"outcome"`
	Attempts    int     `json:"attempts,omitempty"`
	DiscipleID  string  `json:"discipleId,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Report is the full result of a run.
type Report struct {
	Progress Progress     `json:"progress"`
	Items    []ItemResult `json:"items"`
}

// Task is a batch waiting for the ingestion worker. The roster it targets is
// resolved when the worker picks it up.
type Task struct {
	JobID   string
	Profile string
	Files   []File
}
