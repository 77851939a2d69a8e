package ingest

import "errors"

var (
	// ErrBatchTooLarge is returned by callers that enforce MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrEmptyBatch is returned by callers for a batch without files.
	ErrEmptyBatch = errors.New("batch is empty")
	// ErrRetriesExhausted marks an item that stayed rate limited on every attempt.
	ErrRetriesExhausted = errors.New("rate limited on every attempt")
	// ErrNotImage marks an uploaded file whose content is not an image.
	ErrNotImage = errors.New("not an image")
)
