package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/blogia/internal/auth"
	"github.com/sakif/blogia/internal/service"
)

// UploadHandler accepts post-image uploads and hands back the public URL.
type UploadHandler struct {
	images *service.ImageService
	logger *slog.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(images *service.ImageService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{images: images, logger: logger}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// HandleUpload stores an image in the blob store.
//
// HTTP: POST /api/images
//
// The body is the raw image bytes; Content-Type declares the format. The
// reader is capped one byte past the size limit so an oversized body fails
// validation instead of buffering unbounded input.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token := auth.TokenFromContext(r.Context())

	data, err := io.ReadAll(io.LimitReader(r.Body, service.MaxImageSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "could not read upload body"})
		return
	}

	url, err := h.images.Upload(r.Context(), token, identity.UserID, r.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
