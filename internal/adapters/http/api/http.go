// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/sect/internal/adapters/repository"
	"github.com/okian/sect/internal/adapters/spool"
	service "github.com/okian/sect/internal/app"
	"github.com/okian/sect/internal/domain/ingest"
	"github.com/okian/sect/internal/domain/profile"
	"github.com/okian/sect/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ProfileDependencies
	DiscipleDependencies
	UploadDependencies
	ReportDependencies
}

// ProfileView mirrors the read shape of the active profile.
type ProfileView = types.ProfileView

// Job mirrors the read shape of an upload batch.
type Job = types.Job

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	profilesHandler  *ProfilesHandler
	disciplesHandler *DisciplesHandler
	uploadsHandler   *UploadsHandler
	reportsHandler   *ReportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, spoolDir *spool.Dir, maxBatch int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		profilesHandler:  NewProfilesHandler(deps),
		disciplesHandler: NewDisciplesHandler(deps),
		uploadsHandler:   NewUploadsHandler(deps, spoolDir, maxBatch),
		reportsHandler:   NewReportsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /profiles", MetricsMiddleware(s.profilesHandler.HandleList, "profiles"))
	mux.HandleFunc("POST /profiles", MetricsMiddleware(s.profilesHandler.HandleOpen, "profiles"))
	mux.HandleFunc("DELETE /profiles/active", MetricsMiddleware(s.profilesHandler.HandleClose, "profiles"))
	mux.HandleFunc("DELETE /profiles/{name}", MetricsMiddleware(s.profilesHandler.HandleDelete, "profiles"))
	mux.HandleFunc("GET /profile", MetricsMiddleware(s.profilesHandler.HandleGet, "profile"))
	mux.HandleFunc("PUT /profile/limit", MetricsMiddleware(s.profilesHandler.HandleSetLimit, "profile_limit"))
	mux.HandleFunc("PUT /profile/instruction", MetricsMiddleware(s.profilesHandler.HandleSetInstruction, "profile_instruction"))
	mux.HandleFunc("DELETE /profile/instruction", MetricsMiddleware(s.profilesHandler.HandleResetInstruction, "profile_instruction"))

	mux.HandleFunc("GET /disciples", MetricsMiddleware(s.disciplesHandler.HandleList, "disciples"))
	mux.HandleFunc("DELETE /disciples", MetricsMiddleware(s.disciplesHandler.HandleClear, "disciples"))
	mux.HandleFunc("DELETE /disciples/{id}", MetricsMiddleware(s.disciplesHandler.HandleDelete, "disciple"))
	mux.HandleFunc("GET /criteria", MetricsMiddleware(s.disciplesHandler.HandleGetCriteria, "criteria"))
	mux.HandleFunc("PUT /criteria", MetricsMiddleware(s.disciplesHandler.HandleSetCriteria, "criteria"))

	mux.HandleFunc("POST /uploads", MetricsMiddleware(s.uploadsHandler.HandleUpload, "uploads"))
	mux.HandleFunc("GET /jobs", MetricsMiddleware(s.uploadsHandler.HandleListJobs, "jobs"))
	mux.HandleFunc("GET /jobs/{id}", MetricsMiddleware(s.uploadsHandler.HandleGetJob, "job"))

	mux.HandleFunc("GET /team", MetricsMiddleware(s.reportsHandler.HandleTeam, "team"))
	mux.HandleFunc("GET /overview", MetricsMiddleware(s.reportsHandler.HandleOverview, "overview"))
	mux.HandleFunc("GET /export", MetricsMiddleware(s.reportsHandler.HandleExport, "export"))
	mux.HandleFunc("POST /import", MetricsMiddleware(s.reportsHandler.HandleImport, "import"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates a service error into its status code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ingest.ErrBatchTooLarge),
		errors.Is(err, ingest.ErrEmptyBatch),
		errors.Is(err, profile.ErrFormat),
		errors.Is(err, repository.ErrInvalidName),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, spool.ErrTooLarge):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNoActiveProfile):
		writeError(w, http.StatusConflict, "no_active_profile", err)
	case errors.Is(err, service.ErrBusy):
		writeError(w, http.StatusConflict, "busy", err)
	case errors.Is(err, service.ErrProfileActive):
		writeError(w, http.StatusConflict, "profile_active", err)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

const maxJSONBody = 1 << 20
