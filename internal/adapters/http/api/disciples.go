package api

import (
	"context"
	"net/http"

	"github.com/okian/sect/internal/domain/model"
	"github.com/okian/sect/internal/domain/query"
)

// DiscipleDependencies defines the roster read and delete operations.
type DiscipleDependencies interface {
	Disciples(c query.Criteria) ([]model.Disciple, error)
	DeleteDisciple(ctx context.Context, id string) error
	ClearDisciples(ctx context.Context) error
	Criteria() query.Criteria
	SetCriteria(ctx context.Context, c query.Criteria) (query.Criteria, error)
}

// DisciplesHandler handles roster requests.
type DisciplesHandler struct {
	deps DiscipleDependencies
}

// NewDisciplesHandler creates a new disciples handler.
func NewDisciplesHandler(deps DiscipleDependencies) *DisciplesHandler {
	return &DisciplesHandler{deps: deps}
}

// HandleList handles GET /disciples. Query parameters override the stored criteria
// for this request only.
func (h *DisciplesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	c := h.deps.Criteria()
	q := r.URL.Query()
	if v, ok := q["verdict"]; ok {
		c.Verdict = v[0]
	}
	if v, ok := q["q"]; ok {
		c.Query = v[0]
	}
	if v, ok := q["element"]; ok {
		c.Element = v[0]
	}
	if v, ok := q["sort"]; ok {
		c.Sort = v[0]
	}

	list, err := h.deps.Disciples(c)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleClear handles DELETE /disciples.
func (h *DisciplesHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ClearDisciples(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /disciples/{id}.
func (h *DisciplesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteDisciple(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetCriteria handles GET /criteria.
func (h *DisciplesHandler) HandleGetCriteria(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Criteria())
}

// HandleSetCriteria handles PUT /criteria.
func (h *DisciplesHandler) HandleSetCriteria(w http.ResponseWriter, r *http.Request) {
	var c query.Criteria
	if err := decodeJSON(w, r, &c); err != nil {
		writeFailure(w, err)
		return
	}
	stored, err := h.deps.SetCriteria(r.Context(), c)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
