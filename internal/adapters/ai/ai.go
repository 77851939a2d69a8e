// Package ai selects and instruments the configured disciple analyzer.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/sect/internal/adapters/ai/chatmodel"
	"github.com/okian/sect/internal/adapters/ai/gemini"
	"github.com/okian/sect/internal/config"
	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/pkg/logger"
	"github.com/okian/sect/pkg/metrics"
)

// ErrUnknownProvider is returned for a provider name New does not know.
var ErrUnknownProvider = errors.New("unknown analyzer provider")

// New builds the analyzer named by cfg.AIProvider, wrapped with metrics and logging.
func New(ctx context.Context, cfg *config.Config) (analysis.Analyzer, error) {
	var (
		a   analysis.Analyzer
		err error
	)
	switch cfg.AIProvider {
	case config.ProviderGemini:
		a, err = gemini.New(ctx, cfg.AIAPIKey,
			gemini.WithModel(cfg.AIModel),
			gemini.WithBaseURL(cfg.AIBaseURL),
			gemini.WithTimeout(cfg.AITimeout()),
		)
	case config.ProviderOpenAI:
		a, err = chatmodel.NewOpenAI(ctx, chatmodel.Config{
			APIKey:  cfg.AIAPIKey,
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout(),
		})
	case config.ProviderOllama:
		a, err = chatmodel.NewOllama(ctx, chatmodel.Config{
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout(),
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.AIProvider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.AIAPIKey == "" && cfg.AIProvider != config.ProviderOllama {
		logger.Get().Warn(ctx, "no analyzer API key configured; uploads will fail",
			logger.String("provider", cfg.AIProvider))
	}
	return Instrument(a, cfg.AIProvider), nil
}

type instrumented struct {
	next     analysis.Analyzer
	provider string
	log      logger.Logger
}

// Instrument records attempt metrics and logs around every analysis call.
func Instrument(next analysis.Analyzer, provider string) analysis.Analyzer {
	return &instrumented{next: next, provider: provider, log: logger.Named("analyzer")}
}

func (i *instrumented) Analyze(ctx context.Context, image []byte, instruction string) (model.Disciple, error) {
	start := time.Now()
	d, err := i.next.Analyze(ctx, image, instruction)
	elapsed := time.Since(start)

	result := resultLabel(err)
	metrics.RecordAnalysisAttempt(result, elapsed.Seconds())
	if err != nil {
		if errors.Is(err, analysis.ErrRateLimited) {
			metrics.RecordRateLimited()
		}
		metrics.RecordErrorByComponent("analyzer", result)
		i.log.Warn(ctx, "analysis failed",
			logger.String("provider", i.provider),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return d, err
	}
	i.log.Debug(ctx, "analysis done",
		logger.String("provider", i.provider),
		logger.String("name", d.Name),
		logger.String("verdict", string(d.Verdict)),
		logger.Duration("elapsed", elapsed))
	return d, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, analysis.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, analysis.ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, analysis.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "remote"
	}
}
