package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by analyzers. Adapters wrap provider errors with these.
var (
	// ErrInvalidResponse means the model answered but the payload is unusable.
	ErrInvalidResponse = errors.New("invalid analysis response")
	// ErrRateLimited means the provider refused the call for quota or rate reasons.
	ErrRateLimited = errors.New("analysis rate limited")
	// ErrRemote covers every other provider or transport failure.
	ErrRemote = errors.New("analysis remote error")
	// ErrMissingCredential means no API key is configured.
	ErrMissingCredential = errors.New("analysis credential missing")
)

var rateLimitMarkers = []string{
	"429",
	"quota",
	"too many requests",
	"resource exhausted",
	"rate limit",
}

// IsRateLimitMessage reports whether a provider message indicates rate limiting.
func IsRateLimitMessage(msg string) bool {
	m := strings.ReplaceAll(strings.ToLower(msg), "_", " ")
	for _, marker := range rateLimitMarkers {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

// Classify maps an arbitrary provider error onto the sentinel taxonomy.
// Errors already carrying a sentinel and context errors pass through unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrRemote),
		errors.Is(err, ErrMissingCredential),
		errors.Is(err, context.Canceled):
		return err
	case IsRateLimitMessage(err.Error()):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %w", ErrRemote, err)
	}
}

// IsRetryable reports whether another attempt may succeed. Only rate limiting qualifies.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
