package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/sect/internal/adapters/ai"
	"github.com/okian/sect/internal/adapters/http/api"
	"github.com/okian/sect/internal/adapters/http/swagger"
	"github.com/okian/sect/internal/adapters/repository"
	"github.com/okian/sect/internal/adapters/spool"
	app "github.com/okian/sect/internal/app"
	"github.com/okian/sect/internal/config"
	"github.com/okian/sect/internal/domain/ingest"
	"github.com/okian/sect/internal/job"
	"github.com/okian/sect/pkg/logger"
	"github.com/okian/sect/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 2 * time.Minute
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "sectd stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// daemon holds everything run starts and must release.
type daemon struct {
	store repository.Store
	svc   *app.Service
	mux   *http.ServeMux
}

func (d *daemon) close() {
	d.svc.Stop()
	_ = d.store.Close()
}

// build wires the store, analyzer, service and HTTP routes from cfg.
func build(ctx context.Context, cfg *config.Config) (*daemon, error) {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	analyzer, err := ai.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := repository.OpenSQLite(ctx, cfg.DBPath, repository.WithLogger(logger.Named("store")))
	if err != nil {
		return nil, err
	}

	dir, err := spool.New(cfg.SpoolDir, spool.DefaultMaxFileSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithAnalyzer(analyzer),
		app.WithQueueSize(cfg.QueueSize),
		app.WithMaxBatchSize(cfg.MaxBatchSize),
		app.WithDefaultLimit(cfg.DefaultLimit),
		app.WithPipelineOptions(
			ingest.WithMaxAttempts(cfg.MaxAttempts),
			ingest.WithBackoffBase(cfg.BackoffBase()),
			ingest.WithPacing(cfg.Pacing()),
		),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, dir, cfg.MaxBatchSize).Register(ctx, mux)

	return &daemon{store: store, svc: svc, mux: mux}, nil
}

// run serves until ctx ends, then shuts the HTTP server and the service down.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	metrics.GetRegistry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	if cfg.BackupSchedule != "" {
		if _, err := job.StartBackup(ctx, cfg.BackupSchedule, job.NewBackup(d.store, cfg.BackupDir)); err != nil {
			return err
		}
		log.Info(ctx, "profile backups scheduled",
			logger.String("schedule", cfg.BackupSchedule),
			logger.String("dir", cfg.BackupDir))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           d.mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		startServiceMetricsUpdater(gctx, d.svc)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
			return err
		}
		return nil
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

// startServiceMetricsUpdater refreshes service gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics copies service stats into gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if size, ok := stats["rosterSize"].(int); ok {
		metrics.UpdateRosterSize(size)
	}
}
