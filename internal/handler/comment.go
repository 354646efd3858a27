package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/blogia/internal/auth"
	"github.com/sakif/blogia/internal/service"
)

// CommentHandler exposes flat, non-threaded comments over HTTP.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// HandleList returns a post's comments, oldest first.
//
// HTTP: GET /api/posts/{id}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromContext(r.Context())
	postID := r.PathValue("id")

	comments, err := h.comments.ListForPost(r.Context(), token, postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// HandleAdd posts a comment as the authenticated caller.
//
// HTTP: POST /api/posts/{id}/comments
func (h *CommentHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())
	postID := r.PathValue("id")

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	comment, err := h.comments.Add(r.Context(), token, identity.UserID, postID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// HandleDelete removes the caller's own comment.
//
// HTTP: DELETE /api/comments/{id}
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())
	commentID := r.PathValue("id")

	if err := h.comments.Delete(r.Context(), token, identity.UserID, commentID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
