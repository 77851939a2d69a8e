package api

import (
	"context"
	"net/http"

	"github.com/okian/sect/internal/adapters/repository"
)

// ProfileDependencies defines the profile operations used by the API.
type ProfileDependencies interface {
	ListProfiles(ctx context.Context) ([]repository.ProfileInfo, error)
	OpenProfile(ctx context.Context, name, mode string) (ProfileView, error)
	CloseProfile(ctx context.Context) error
	DeleteProfile(ctx context.Context, name string) error
	ActiveProfile() (ProfileView, error)
	SetLimit(ctx context.Context, limit int) (int, error)
	SetInstruction(ctx context.Context, text string) error
	ResetInstruction(ctx context.Context) error
}

// ProfilesHandler handles profile requests.
type ProfilesHandler struct {
	deps ProfileDependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps ProfileDependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

type openRequest struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
}

type limitRequest struct {
	Limit int `json:"limit"`
}

type instructionRequest struct {
	Instruction string `json:"instruction"`
}

// HandleList handles GET /profiles.
func (h *ProfilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	infos, err := h.deps.ListProfiles(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// HandleOpen handles POST /profiles.
func (h *ProfilesHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := h.deps.OpenProfile(r.Context(), req.Name, req.Mode)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleClose handles DELETE /profiles/active.
func (h *ProfilesHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.CloseProfile(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /profiles/{name}.
func (h *ProfilesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteProfile(r.Context(), r.PathValue("name")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /profile.
func (h *ProfilesHandler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	v, err := h.deps.ActiveProfile()
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleSetLimit handles PUT /profile/limit.
func (h *ProfilesHandler) HandleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	limit, err := h.deps.SetLimit(r.Context(), req.Limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, limitRequest{Limit: limit})
}

// HandleSetInstruction handles PUT /profile/instruction.
func (h *ProfilesHandler) HandleSetInstruction(w http.ResponseWriter, r *http.Request) {
	var req instructionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.deps.SetInstruction(r.Context(), req.Instruction); err != nil {
		writeFailure(w, err)
		return
	}
	h.HandleGet(w, r)
}

// HandleResetInstruction handles DELETE /profile/instruction.
func (h *ProfilesHandler) HandleResetInstruction(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ResetInstruction(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	h.HandleGet(w, r)
}
