package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/blogia/internal/auth"
	"github.com/sakif/blogia/internal/service"
)

// ProfileHandler exposes public profiles and self-service profile edits.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
}

// HandleGet returns a user's public profile.
//
// HTTP: GET /api/profiles/{id}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromContext(r.Context())
	userID := r.PathValue("id")

	user, err := h.profiles.Get(r.Context(), token, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleMe returns the caller's own profile.
//
// HTTP: GET /api/me
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())

	user, err := h.profiles.Get(r.Context(), token, identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate changes the caller's display name and/or avatar. Fields left
// null stay untouched.
//
// HTTP: PATCH /api/me
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	user, err := h.profiles.Update(r.Context(), token, identity.UserID, req.DisplayName, req.AvatarURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
