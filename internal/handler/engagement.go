package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/blogia/internal/auth"
	"github.com/sakif/blogia/internal/service"
)

// EngagementHandler exposes like/bookmark toggles and the bookmark list.
type EngagementHandler struct {
	engagement *service.EngagementService
	logger     *slog.Logger
}

// NewEngagementHandler creates an EngagementHandler.
func NewEngagementHandler(engagement *service.EngagementService, logger *slog.Logger) *EngagementHandler {
	return &EngagementHandler{engagement: engagement, logger: logger}
}

type toggleResponse struct {
	Active bool `json:"active"`
}

// HandleToggleLike flips the caller's like on a post and reports the new
// state.
//
// HTTP: POST /api/posts/{id}/like
func (h *EngagementHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())
	postID := r.PathValue("id")

	liked, err := h.engagement.ToggleLike(r.Context(), token, identity.UserID, postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{Active: liked})
}

// HandleToggleBookmark flips the caller's bookmark on a post.
//
// HTTP: POST /api/posts/{id}/bookmark
func (h *EngagementHandler) HandleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())
	postID := r.PathValue("id")

	bookmarked, err := h.engagement.ToggleBookmark(r.Context(), token, identity.UserID, postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{Active: bookmarked})
}

// HandleListBookmarks returns the caller's bookmarked posts, newest bookmark
// first.
//
// HTTP: GET /api/bookmarks
func (h *EngagementHandler) HandleListBookmarks(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())

	posts, err := h.engagement.ListBookmarked(r.Context(), token, identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}
