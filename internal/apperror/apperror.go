// Package apperror defines the closed error taxonomy surfaced to callers and
// the UI, and the translation of raw backend failures into that taxonomy.
//
// Every failure that leaves the service layer is one of the sentinel kinds
// below, wrapped in an *AppError carrying a user-facing message. Handlers map
// kinds to HTTP status codes; they never inspect raw backend errors.
package apperror

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors forming the taxonomy. Use errors.Is against these to classify a
// failure anywhere in the chain.
var (
	ErrNetwork        = errors.New("network error")
	ErrTimeout        = errors.New("timed out")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrServer         = errors.New("server error")
	ErrConfiguration  = errors.New("backend not configured")
	ErrUnknown        = errors.New("unknown error")
)

// AppError is a classified application error.
//
// Err is one of the sentinels above. Message is safe to show to a user.
// Detail carries internal context (backend codes, wrapped messages) for logs
// and is never sent to clients.
type AppError struct {
	Err        error
	Message    string
	Field      string        // optional: input field that caused a validation failure
	Detail     string        // internal detail, logged but not surfaced
	RetryAfter time.Duration // set when Err is ErrRateLimited
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports a locally rejected input. No network round trip
// happens before these are raised.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Detail:  fmt.Sprintf("%s %q not found", resource, id),
	}
}

// Unauthenticated reports a sign-in or token failure.
func Unauthenticated(detail string) *AppError {
	return &AppError{
		Err:     ErrAuthentication,
		Message: "You need to sign in to do that",
		Detail:  detail,
	}
}

// Forbidden reports a permission failure on a resource.
func Forbidden(resource string) *AppError {
	return &AppError{
		Err:     ErrAuthorization,
		Message: fmt.Sprintf("You don't have permission to modify this %s", resource),
	}
}

// RateLimited reports a denied action with the time until it may be retried.
func RateLimited(retryAfter time.Duration) *AppError {
	secs := int(retryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	return &AppError{
		Err:        ErrRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %d seconds", secs),
		RetryAfter: retryAfter,
	}
}

// Configuration reports that the backend platform is not configured. Services
// raise this before issuing any call against a placeholder endpoint.
func Configuration() *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: "The application backend is not configured",
	}
}

// Timeout reports an operation that exceeded its budget. The label and budget
// are embedded in the message so slow dependencies are identifiable in logs.
func Timeout(label string, budget time.Duration) *AppError {
	return &AppError{
		Err:     ErrTimeout,
		Message: fmt.Sprintf("%s timed out after %dms", label, budget.Milliseconds()),
	}
}

// Network wraps a transport-level failure (connection refused, DNS, etc.).
func Network(err error) *AppError {
	return &AppError{
		Err:     ErrNetwork,
		Message: "Network error. Check your connection and try again",
		Detail:  err.Error(),
	}
}

// FromBackend classifies a backend error response by status code, error code
// and message substrings. resource is the context noun used in user-facing
// messages ("post", "comment", ...).
func FromBackend(status int, code, message, resource string) *AppError {
	detail := fmt.Sprintf("backend status=%d code=%s message=%s", status, code, message)
	lower := strings.ToLower(message)

	switch {
	// PGRST116 is PostgREST's answer to a single-object request that matched
	// zero rows.
	case code == "PGRST116" || status == 404 || status == 406:
		return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found", resource), Detail: detail}

	case status == 401 || code == "invalid_grant" || strings.Contains(lower, "invalid login credentials") || strings.Contains(lower, "jwt"):
		msg := "You need to sign in to do that"
		if strings.Contains(lower, "invalid login credentials") {
			msg = "Invalid email or password"
		}
		return &AppError{Err: ErrAuthentication, Message: msg, Detail: detail}

	// 42501: Postgres insufficient_privilege, raised when row-level security
	// rejects a write.
	case status == 403 || code == "42501":
		return &AppError{Err: ErrAuthorization, Message: fmt.Sprintf("You don't have permission to modify this %s", resource), Detail: detail}

	// 23505: unique constraint violation (duplicate like/bookmark, taken email).
	case code == "23505" || strings.Contains(lower, "duplicate key"):
		return &AppError{Err: ErrValidation, Message: fmt.Sprintf("This %s already exists", resource), Detail: detail}

	case status == 400 || status == 422:
		return &AppError{Err: ErrValidation, Message: fmt.Sprintf("Invalid %s data", resource), Detail: detail}

	case status == 429:
		return &AppError{Err: ErrRateLimited, Message: "Too many requests. Try again shortly", Detail: detail}

	case status >= 500:
		return &AppError{Err: ErrServer, Message: "Something went wrong on our end. Try again later", Detail: detail}

	default:
		return &AppError{Err: ErrUnknown, Message: "An unexpected error occurred", Detail: detail}
	}
}
