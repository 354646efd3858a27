package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/blogia/internal/apperror"
	"github.com/sakif/blogia/internal/ratelimit"
	"github.com/sakif/blogia/internal/supabase"
	"github.com/sakif/blogia/internal/validate"
)

// ImageBucket is the fixed blob-store bucket for post images. It is public:
// uploaded images are served directly by the platform.
const ImageBucket = "post-images"

// MaxImageSize caps uploads at 5MB.
const MaxImageSize = 5 * 1024 * 1024

// allowedImageTypes maps accepted MIME types to the extension the stored
// object gets. The extension is always derived from the MIME type, never
// trusted from the uploaded filename.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageService uploads post images to the blob store. No resumable or
// chunked uploads, no retry: a failed upload is reported and the user tries
// again.
type ImageService struct {
	backend *supabase.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewImageService creates an ImageService with its dependencies.
func NewImageService(backend *supabase.Client, limiter *ratelimit.Limiter, logger *slog.Logger) *ImageService {
	return &ImageService{backend: backend, limiter: limiter, logger: logger}
}

// Upload validates and stores an image, returning its public URL. The stored
// name is collision-resistant: unix timestamp plus a random token, with the
// extension clamped to the MIME allow-list.
func (s *ImageService) Upload(ctx context.Context, token, actorID, contentType string, data []byte) (string, error) {
	if res := validate.UUID(actorID); !res.Valid {
		return "", apperror.ValidationFailed("actorId", res.Message())
	}

	ext, allowed := allowedImageTypes[contentType]
	if !allowed {
		return "", apperror.ValidationFailed("image", "image must be a JPEG, PNG, GIF or WebP")
	}
	if len(data) == 0 {
		return "", apperror.ValidationFailed("image", "image is empty")
	}
	if len(data) > MaxImageSize {
		return "", apperror.ValidationFailed("image", "image must be 5MB or less")
	}

	if err := guard(s.backend, s.limiter, "upload-image", actorID); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().Unix(), xid.New().String(), ext)
	objectPath := actorID + "/" + name

	err := supabase.WithTimeout(ctx, uploadTimeout, "upload image", func(ctx context.Context) error {
		return s.backend.Storage().Upload(ctx, token, ImageBucket, objectPath, data, contentType)
	})
	if err != nil {
		return "", mapErr(err, "image")
	}

	url := s.backend.Storage().PublicURL(ImageBucket, objectPath)
	s.logger.Info("image uploaded",
		slog.String("userId", actorID),
		slog.String("path", objectPath),
		slog.Int("bytes", len(data)),
	)
	return url, nil
}
