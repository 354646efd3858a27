package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/blogia/internal/auth"
	"github.com/sakif/blogia/internal/model"
	"github.com/sakif/blogia/internal/service"
)

// PostHandler exposes post CRUD over HTTP. Reads are public (optional auth),
// writes require a verified identity whose token is forwarded to the row
// store for the real ownership check.
type PostHandler struct {
	posts      *service.PostService
	engagement *service.EngagementService
	logger     *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, engagement *service.EngagementService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, engagement: engagement, logger: logger}
}

// postWithStats decorates a post with its engagement numbers for detail
// views. Stats may be zeroed with Known=false when the stats fetch failed.
type postWithStats struct {
	model.Post
	Stats model.Stats `json:"stats"`
}

// HandleList returns published posts, or an author's own posts including
// drafts when ?author= names the authenticated caller.
//
// HTTP: GET /api/posts?author=<uuid>&drafts=true&limit=20&offset=0
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromContext(r.Context())
	identity, authed := auth.IdentityFromContext(r.Context())

	q := r.URL.Query()
	opts := service.ListPostsOptions{
		AuthorID: q.Get("author"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	// Drafts are only visible to their author. Anyone else asking for them
	// gets the published view.
	if q.Get("drafts") == "true" && authed && identity.UserID == opts.AuthorID {
		opts.IncludeDrafts = true
	}

	posts, err := h.posts.List(r.Context(), token, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post with its engagement stats.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	token := auth.TokenFromContext(r.Context())

	post, err := h.posts.Get(r.Context(), token, id)
	if err != nil {
		writeError(w, err)
		return
	}

	viewerID := ""
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		viewerID = identity.UserID
	}
	stats := h.engagement.Stats(r.Context(), token, viewerID, id)

	writeJSON(w, http.StatusOK, postWithStats{Post: *post, Stats: stats})
}

// HandleCreate publishes or drafts a new post by the authenticated caller.
//
// HTTP: POST /api/posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())

	var in service.CreatePostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	post, err := h.posts.Create(r.Context(), token, identity.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleUpdate applies a partial update to the caller's own post.
//
// HTTP: PATCH /api/posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())
	id := r.PathValue("id")

	var in service.UpdatePostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	post, err := h.posts.Update(r.Context(), token, identity.UserID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes the caller's own post.
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.posts.Delete(r.Context(), token, identity.UserID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
