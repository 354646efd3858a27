// Package service contains the business logic layer: every operation
// validates its inputs, applies the per-actor rate limit, verifies the
// backend is configured, issues the backend call under a timeout budget, and
// maps backend rows and errors into domain shapes and the error taxonomy.
//
// Services accept primitives and return domain errors; they know nothing
// about HTTP. Handlers translate domain errors to status codes.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/sakif/blogia/internal/apperror"
	"github.com/sakif/blogia/internal/ratelimit"
	"github.com/sakif/blogia/internal/supabase"
)

// Per-operation timeout budgets. Reads are cheaper than writes and fail
// faster; uploads move real bytes and get more headroom.
const (
	readTimeout   = 10 * time.Second
	writeTimeout  = 15 * time.Second
	uploadTimeout = 30 * time.Second
)

// Content limits enforced before anything reaches the backend.
const (
	MaxTitleLength       = 200
	MaxContentLength     = 100000
	MaxExcerptLength     = 500
	MaxCommentLength     = 2000
	MaxDisplayNameLength = 50

	DefaultListLimit = 20
	MaxListLimit     = 100
)

// guard runs the shared operation preamble: the fixed-window rate limit
// keyed "{action}-{actorID}", then the configuration check. actorID may be
// empty for anonymous reads, which skip the limiter.
func guard(backend *supabase.Client, limiter *ratelimit.Limiter, action, actorID string) error {
	if actorID != "" {
		if allowed, retry := limiter.Allow(action + "-" + actorID); !allowed {
			return apperror.RateLimited(retry)
		}
	}
	if !backend.Configured() {
		return apperror.Configuration()
	}
	return nil
}

// mapErr translates a backend failure into the taxonomy. Errors that are
// already classified (network, timeout, rate limit, validation) pass through
// untouched; backend envelopes are classified by status/code/message with
// resource as the context noun; anything else becomes Unknown.
func mapErr(err error, resource string) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if se, ok := supabase.AsError(err); ok {
		return apperror.FromBackend(se.StatusCode, se.Code, se.Message, resource)
	}

	return &apperror.AppError{
		Err:     apperror.ErrUnknown,
		Message: fmt.Sprintf("Could not load %s data", resource),
		Detail:  err.Error(),
	}
}

// clampLimit applies the default and maximum pagination bounds.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
