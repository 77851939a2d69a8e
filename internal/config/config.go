// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config filled with defaults.
//   - Load layers a YAML file and SECT_ environment variables on top.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Analyzer providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file holding profiles and settings.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the number of upload batches waiting for the worker.
	QueueSize int `koanf:"queue_size"`

	// MaxBatchSize caps the number of files in one upload.
	MaxBatchSize int `koanf:"max_batch_size"`

	// DefaultLimit is the roster cap given to new profiles.
	DefaultLimit int `koanf:"default_limit"`

	// SpoolDir receives uploaded files until their batch finishes. Empty uses the OS temp dir.
	SpoolDir string `koanf:"spool_dir"`

	// AIProvider selects the analyzer: gemini, openai or ollama.
	AIProvider string `koanf:"ai_provider"`
	AIAPIKey   string `koanf:"ai_api_key"`
	AIModel    string `koanf:"ai_model"`
	// AIBaseURL overrides the provider endpoint (openai-compatible gateways, ollama host).
	AIBaseURL   string `koanf:"ai_base_url"`
	AITimeoutMS int    `koanf:"ai_timeout_ms"`

	// MaxAttempts is the number of analysis attempts per image.
	MaxAttempts int `koanf:"max_attempts"`
	// BackoffBaseMS is the first rate-limit wait; later waits double.
	BackoffBaseMS int `koanf:"backoff_base_ms"`
	// PacingMS is the pause between two images of a batch.
	PacingMS int `koanf:"pacing_ms"`

	// BackupSchedule is a cron spec with seconds; empty disables backups.
	BackupSchedule string `koanf:"backup_schedule"`
	BackupDir      string `koanf:"backup_dir"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		DBPath:         "sect.db",
		QueueSize:      8,
		MaxBatchSize:   100,
		DefaultLimit:   50,
		AIProvider:     ProviderGemini,
		AIModel:        "gemini-2.5-flash",
		AITimeoutMS:    120_000,
		MaxAttempts:    4,
		BackoffBaseMS:  10_000,
		PacingMS:       2_000,
		BackupSchedule: "",
		BackupDir:      "backups",
	}
}

// AITimeout returns the per-call analyzer timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutMS) * time.Millisecond
}

// BackoffBase returns the first rate-limit wait.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMS) * time.Millisecond
}

// Pacing returns the wait between two analyzed images.
func (c *Config) Pacing() time.Duration {
	return time.Duration(c.PacingMS) * time.Millisecond
}
