package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/paradox/internal/api/request"
	"github.com/mcoot/paradox/internal/api/response"
	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/services/progression"
)

// UserHandler handles identity registration and lookup endpoints
type UserHandler struct {
	engine *progression.Engine
}

// NewUserHandler creates a new user handler
func NewUserHandler(engine *progression.Engine) *UserHandler {
	return &UserHandler{
		engine: engine,
	}
}

// Register handles POST /api/v1/user
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	profile, err := h.engine.Register(r.Context(), progression.RegisterInput{
		IdentityID:  model.IdentityID(req.IdentityID),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.UserFromProfile(profile))
}

// Get handles GET /api/v1/user/{identity_id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityID(mux.Vars(r)["identity_id"])

	profile, err := h.engine.Profile(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromProfile(profile))
}

// Present handles GET /api/v1/user/{identity_id}/present
func (h *UserHandler) Present(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityID(mux.Vars(r)["identity_id"])

	present, err := h.engine.IsRegistered(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	status := http.StatusOK
	if !present {
		status = http.StatusNotFound
	}
	response.JSON(w, status, response.Presence{UserPresent: present})
}

// Hints handles GET /api/v1/user/{identity_id}/hints
func (h *UserHandler) Hints(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityID(mux.Vars(r)["identity_id"])

	unlocked, err := h.engine.UnlockedHints(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HintsFromUnlocked(unlocked))
}

// Delete handles DELETE /api/v1/user/{identity_id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityID(mux.Vars(r)["identity_id"])

	if err := h.engine.DeleteIdentity(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
