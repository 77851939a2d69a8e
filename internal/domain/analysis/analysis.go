// Package analysis defines the contract between the ingestion pipeline and the
// multimodal model that reads disciple cards.
package analysis

import (
	"context"

	"github.com/okian/sect/internal/domain/model"
)

// Analyzer turns one card image into a disciple record.
//
// Implementations resolve a blank instruction to DefaultInstruction, return a
// record with a fresh ID and no fingerprint, and report failures through the
// sentinel errors of this package.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, instruction string) (model.Disciple, error)
}

// Func adapts a function to the Analyzer interface.
type Func func(ctx context.Context, image []byte, instruction string) (model.Disciple, error)

// Analyze calls f.
func (f Func) Analyze(ctx context.Context, image []byte, instruction string) (model.Disciple, error) {
	return f(ctx, image, instruction)
}
