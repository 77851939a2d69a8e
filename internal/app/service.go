// Package service wires the roster, the ingestion worker and the profile
// repository into the operations exposed by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sect/internal/adapters/mq/queue"
	"github.com/okian/sect/internal/adapters/mq/worker"
	"github.com/okian/sect/internal/adapters/repository"
	"github.com/okian/sect/internal/domain/advisor"
	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/ingest"
	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/internal/domain/overview"
	"github.com/okian/sect/internal/domain/profile"
	"github.com/okian/sect/internal/domain/query"
	"github.com/okian/sect/internal/domain/roster"
	"github.com/okian/sect/internal/domain/types"
	"github.com/okian/sect/pkg/logger"
	"github.com/okian/sect/pkg/metrics"
)

// Open modes for OpenProfile.
const (
	// ModeLoad keeps the stored roster of an existing profile.
	ModeLoad = "load"
	// ModeOverwrite replaces any stored profile with an empty one.
	ModeOverwrite = "overwrite"
)

const workerShutdownTimeout = 5 * time.Second

// ProfileView summarizes the active profile.
type ProfileView = types.ProfileView

// Service implements the API dependencies for the roster manager.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	analyzer analysis.Analyzer
	queue    *queue.InMemoryQueue
	worker   *worker.InMemoryWorker
	jobs     *jobRegistry

	// Active state
	active   *roster.Store
	criteria query.Criteria

	// Configuration
	queueSize    int
	maxBatch     int
	defaultLimit int
	pipelineOpts []ingest.Option
	now          func() time.Time

	started      bool
	cancelWorker context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:    8,
		maxBatch:     ingest.MaxBatchSize,
		defaultLimit: profile.DefaultLimit,
		criteria:     query.DefaultCriteria(),
		jobs:         newJobRegistry(),
		now:          time.Now,
		analyzer: analysis.Func(func(context.Context, []byte, string) (model.Disciple, error) {
			return model.Disciple{}, analysis.ErrMissingCredential
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Start creates the queue and the ingestion worker, then restores the
// persisted criteria and the last active profile.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting roster service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	popts := append([]ingest.Option{
		ingest.WithSleeper(worker.MeteredSleeper(ingest.TimerSleeper())),
		ingest.WithLogger(s.logger.Named("ingest")),
	}, s.pipelineOpts...)
	pipeline := ingest.New(s.analyzer, popts...)

	host := &ingestHost{s: s}
	s.worker = worker.NewInMemoryWorker(s.queue, pipeline, host, host,
		worker.WithName("ingest-worker"),
		worker.WithLogger(s.logger.Named("ingest-worker")))

	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelWorker = cancel
	go s.worker.Run(wctx)

	s.restoreLocked(ctx)

	s.started = true
	s.logger.Info(ctx, "roster service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxBatch", s.maxBatch))
	return nil
}

func (s *Service) restoreLocked(ctx context.Context) {
	if raw, err := s.store.Setting(ctx, repository.SettingCriteria); err == nil {
		var c query.Criteria
		if err := json.Unmarshal([]byte(raw), &c); err == nil {
			s.criteria = c.Normalize()
		} else {
			s.logger.Warn(ctx, "ignoring stored criteria", logger.Error(err))
		}
	}

	name, err := s.store.Setting(ctx, repository.SettingLastProfile)
	if err != nil || strings.TrimSpace(name) == "" {
		return
	}
	snap, err := s.store.Load(ctx, name)
	if err != nil {
		s.logger.Warn(ctx, "last profile not restored", logger.String("profile", name), logger.Error(err))
		return
	}
	s.activateLocked(name, snap)
	s.logger.Info(ctx, "restored last profile", logger.String("profile", name), logger.Int("size", len(snap.Disciples)))
}

// Stop gracefully shuts down the worker and the queue.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping roster service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.cancelWorker != nil {
		s.cancelWorker()
	}
	if s.worker != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
		if err := s.worker.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
		}
		cancel()
	}

	s.started = false
	s.logger.Info(ctx, "roster service stopped")
}

func (s *Service) activateLocked(name string, snap profile.Snapshot) *roster.Store {
	s.active = roster.New(name, snap, s.store,
		roster.WithSizeObserver(metrics.UpdateRosterSize),
		roster.WithLogger(s.logger.Named("roster")))
	return s.active
}

func (s *Service) current() (*roster.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil, ErrNoActiveProfile
	}
	return s.active, nil
}

func view(r *roster.Store) ProfileView {
	instr := r.Instruction()
	return ProfileView{
		Name:              r.Name(),
		Limit:             r.Limit(),
		Size:              r.Len(),
		Instruction:       instr,
		CustomInstruction: instr != analysis.DefaultInstruction,
	}
}

// OpenProfile makes name the active profile. In load mode an existing
// profile keeps its roster and a missing one is created empty; overwrite
// always starts from an empty roster.
func (s *Service) OpenProfile(ctx context.Context, name, mode string) (ProfileView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ProfileView{}, repository.ErrInvalidName
	}
	if mode == "" {
		mode = ModeLoad
	}
	if mode != ModeLoad && mode != ModeOverwrite {
		return ProfileView{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	// Held until the switch so no batch is queued for the old profile meanwhile.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs.busy() {
		return ProfileView{}, ErrBusy
	}

	var snap profile.Snapshot
	if mode == ModeLoad {
		loaded, err := s.store.Load(ctx, name)
		switch {
		case err == nil:
			snap = loaded
		case errors.Is(err, repository.ErrNotFound):
			mode = ModeOverwrite
		default:
			return ProfileView{}, err
		}
	}
	if mode == ModeOverwrite {
		snap = profile.New(s.defaultLimit)
		if err := s.store.Save(ctx, name, snap); err != nil {
			return ProfileView{}, err
		}
	}

	r := s.activateLocked(name, snap)
	s.rememberProfile(ctx, name)

	s.logger.Info(ctx, "profile opened", logger.String("profile", name), logger.String("mode", mode), logger.Int("size", r.Len()))
	return view(r), nil
}

// CloseProfile clears the active profile from memory. Stored data is kept.
func (s *Service) CloseProfile(ctx context.Context) error {
	s.mu.Lock()
	if s.jobs.busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.active == nil {
		s.mu.Unlock()
		return ErrNoActiveProfile
	}
	name := s.active.Name()
	s.active = nil
	s.mu.Unlock()

	metrics.UpdateRosterSize(0)
	s.rememberProfile(ctx, "")
	s.logger.Info(ctx, "profile closed", logger.String("profile", name))
	return nil
}

func (s *Service) rememberProfile(ctx context.Context, name string) {
	if err := s.store.SetSetting(ctx, repository.SettingLastProfile, name); err != nil {
		s.logger.Warn(ctx, "remember profile failed", logger.Error(err))
	}
}

// DeleteProfile removes a stored profile. The active profile cannot be deleted.
func (s *Service) DeleteProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.ErrInvalidName
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active != nil && s.active.Name() == name {
		return fmt.Errorf("%w: %q", ErrProfileActive, name)
	}
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info(ctx, "profile deleted", logger.String("profile", name))
	return nil
}

// ListProfiles returns every stored profile.
func (s *Service) ListProfiles(ctx context.Context) ([]repository.ProfileInfo, error) {
	return s.store.List(ctx)
}

// ActiveProfile describes the active profile.
func (s *Service) ActiveProfile() (ProfileView, error) {
	r, err := s.current()
	if err != nil {
		return ProfileView{}, err
	}
	return view(r), nil
}

// SetLimit changes the roster limit and returns the stored value.
func (s *Service) SetLimit(ctx context.Context, limit int) (int, error) {
	r, err := s.current()
	if err != nil {
		return 0, err
	}
	return r.SetLimit(ctx, limit)
}

// SetInstruction replaces the analysis instruction; blank restores the default.
func (s *Service) SetInstruction(ctx context.Context, text string) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	return r.SetInstruction(ctx, text)
}

// ResetInstruction restores the default analysis instruction.
func (s *Service) ResetInstruction(ctx context.Context) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	return r.ResetInstruction(ctx)
}

// Disciples projects the active roster through c.
func (s *Service) Disciples(c query.Criteria) ([]model.Disciple, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	return query.Project(r.Disciples(), c.Normalize()), nil
}

// Criteria returns the persisted filter and sort criteria.
func (s *Service) Criteria() query.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

// SetCriteria stores c for later sessions and returns the normalized value.
func (s *Service) SetCriteria(ctx context.Context, c query.Criteria) (query.Criteria, error) {
	c = c.Normalize()
	raw, err := json.Marshal(c)
	if err != nil {
		return query.Criteria{}, fmt.Errorf("encode criteria: %w", err)
	}
	if err := s.store.SetSetting(ctx, repository.SettingCriteria, string(raw)); err != nil {
		return query.Criteria{}, err
	}
	s.mu.Lock()
	s.criteria = c
	s.mu.Unlock()
	return c, nil
}

// DeleteDisciple removes one record from the active roster.
func (s *Service) DeleteDisciple(ctx context.Context, id string) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	ok, err := r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: disciple %s", ErrNotFound, id)
	}
	return nil
}

// ClearDisciples empties the active roster.
func (s *Service) ClearDisciples(ctx context.Context) error {
	r, err := s.current()
	if err != nil {
		return err
	}
	return r.Clear(ctx)
}

// SubmitBatch queues files for ingestion into the active profile.
func (s *Service) SubmitBatch(ctx context.Context, files []ingest.File) (Job, error) {
	// The read lock spans enqueueing so a profile switch either sees this
	// job as busy or happens before it picks its target.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Job{}, ErrNotStarted
	}
	r := s.active
	if r == nil {
		return Job{}, ErrNoActiveProfile
	}
	if len(files) == 0 {
		return Job{}, ingest.ErrEmptyBatch
	}
	if len(files) > s.maxBatch {
		return Job{}, fmt.Errorf("%w: %d files, at most %d", ingest.ErrBatchTooLarge, len(files), s.maxBatch)
	}

	job := Job{
		ID:        uuid.NewString(),
		Profile:   r.Name(),
		State:     JobQueued,
		Progress:  ingest.Progress{Total: len(files)},
		CreatedAt: s.now().UTC(),
	}
	s.jobs.add(job)
	if !s.queue.Enqueue(ctx, queue.Task{JobID: job.ID, Profile: job.Profile, Files: files}) {
		s.jobs.remove(job.ID)
		return Job{}, ErrQueueFull
	}

	s.logger.Info(ctx, "batch queued",
		logger.String("job", job.ID),
		logger.String("profile", job.Profile),
		logger.Int("files", len(files)))
	return job, nil
}

// Job returns a queued, running or recently finished job.
func (s *Service) Job(id string) (Job, error) {
	j, ok := s.jobs.get(id)
	if !ok {
		return Job{}, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return j, nil
}

// Jobs lists known jobs, newest first.
func (s *Service) Jobs() []Job {
	return s.jobs.list()
}

// Team runs the advisor over the active roster.
func (s *Service) Team() (advisor.Suggestion, error) {
	r, err := s.current()
	if err != nil {
		return advisor.Suggestion{}, err
	}
	return advisor.Suggest(r.Disciples(), r.Limit()), nil
}

// Overview summarizes the active roster.
func (s *Service) Overview() (overview.Summary, error) {
	r, err := s.current()
	if err != nil {
		return overview.Summary{}, err
	}
	return overview.Summarize(r.Disciples()), nil
}

// Export renders the active profile in its file format and names the file.
func (s *Service) Export() (string, []byte, error) {
	r, err := s.current()
	if err != nil {
		return "", nil, err
	}
	data, err := profile.Marshal(r.Snapshot())
	if err != nil {
		return "", nil, err
	}
	return r.Name() + ".json", data, nil
}

// Import parses data as a profile, stores it under name and makes it active.
// Nothing changes when data is not a profile.
func (s *Service) Import(ctx context.Context, name string, data []byte) (ProfileView, error) {
	name = profile.NameFromFile(name)
	if name == "" {
		return ProfileView{}, repository.ErrInvalidName
	}
	snap, err := profile.Parse(data)
	if err != nil {
		return ProfileView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs.busy() {
		return ProfileView{}, ErrBusy
	}
	if err := s.store.Save(ctx, name, snap); err != nil {
		return ProfileView{}, err
	}
	r := s.activateLocked(name, snap)
	s.rememberProfile(ctx, name)

	s.logger.Info(ctx, "profile imported", logger.String("profile", name), logger.Int("size", r.Len()))
	return view(r), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"queueSize": s.queueSize,
		"maxBatch":  s.maxBatch,
		"busy":      s.jobs.busy(),
		"jobs":      len(s.jobs.list()),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	if s.active != nil {
		stats["activeProfile"] = s.active.Name()
		stats["rosterSize"] = s.active.Len()
		stats["rosterLimit"] = s.active.Limit()
		stats["fingerprints"] = s.active.Seen().Size()
	}
	return stats
}
