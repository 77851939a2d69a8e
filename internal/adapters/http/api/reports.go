package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/sect/internal/domain/advisor"
	"github.com/okian/sect/internal/domain/overview"
)

// ReportDependencies defines the derived views and profile file transfer.
type ReportDependencies interface {
	Team() (advisor.Suggestion, error)
	Overview() (overview.Summary, error)
	Export() (string, []byte, error)
	Import(ctx context.Context, name string, data []byte) (ProfileView, error)
}

// ReportsHandler serves team suggestions, overviews and profile files.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// maxImportBody caps an imported profile document.
const maxImportBody = 32 << 20

// HandleTeam handles GET /team.
func (h *ReportsHandler) HandleTeam(w http.ResponseWriter, _ *http.Request) {
	s, err := h.deps.Team()
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleOverview handles GET /overview.
func (h *ReportsHandler) HandleOverview(w http.ResponseWriter, _ *http.Request) {
	s, err := h.deps.Overview()
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleExport handles GET /export.
func (h *ReportsHandler) HandleExport(w http.ResponseWriter, _ *http.Request) {
	name, data, err := h.deps.Export()
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleImport handles POST /import?name=<file>. The body is the profile document.
func (h *ReportsHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeFailure(w, fmt.Errorf("%w: name is required", ErrBadRequest))
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		writeFailure(w, errors.Join(ErrBadRequest, err))
		return
	}
	v, err := h.deps.Import(r.Context(), name, data)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
