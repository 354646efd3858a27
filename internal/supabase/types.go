// Package supabase is a thin client for the hosted backend platform: auth
// (GoTrue), the PostgREST row store, and blob storage. It is the only place
// in the application that speaks HTTP to the platform.
package supabase

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MinKeyLength is the shortest plausible API key. Anything shorter is treated
// as a placeholder and leaves the client unconfigured.
const MinKeyLength = 20

// Config holds the backend platform settings, read from the environment at
// startup.
type Config struct {
	// URL is the project URL, e.g. https://xyzcompany.supabase.co
	URL string

	// AnonKey is the public API key sent with every request.
	AnonKey string

	// ServiceKey is the privileged key used for server-side operations that
	// bypass row-level security (profile provisioning). Optional.
	ServiceKey string

	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// IsConfigured reports whether the config points at a real project: an
// http(s) URL with a dotted host and a key of plausible length. It never
// performs a network call.
func (c Config) IsConfigured() bool {
	if len(c.AnonKey) < MinKeyLength {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil {
		return false
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.Contains(host, ".")
}

// User is the backend auth provider's view of an account.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Session is an authenticated session as returned by sign-in, sign-up and
// token refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Error is the backend's error envelope. Services translate it into the
// application taxonomy via apperror.FromBackend.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase: %s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
}
