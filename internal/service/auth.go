package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/blogia/internal/apperror"
	"github.com/sakif/blogia/internal/ratelimit"
	"github.com/sakif/blogia/internal/supabase"
	"github.com/sakif/blogia/internal/validate"
)

// AuthService orchestrates signup, login and logout against the hosted auth
// provider. The client never sees a password hash: credentials go straight
// to the provider, and the only local checks are shape validation and rate
// limiting.
type AuthService struct {
	backend  *supabase.Client
	limiter  *ratelimit.Limiter
	profiles *ProfileService
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with its dependencies.
func NewAuthService(backend *supabase.Client, limiter *ratelimit.Limiter, profiles *ProfileService, logger *slog.Logger) *AuthService {
	return &AuthService{backend: backend, limiter: limiter, profiles: profiles, logger: logger}
}

// Signup registers an account. Profile-row creation is best-effort: its
// failure is logged but never fails the signup, since the profile can be
// provisioned later.
func (s *AuthService) Signup(ctx context.Context, email, password, displayName string) (*supabase.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if res := validate.Email(email); !res.Valid {
		return nil, apperror.ValidationFailed("email", res.Message())
	}
	if res := validate.Password(password); !res.Valid {
		// All violated rules at once, so the form can show every problem.
		return nil, apperror.ValidationFailed("password", res.Message())
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperror.ValidationFailed("displayName", "display name is required")
	}
	if len(displayName) > MaxDisplayNameLength {
		return nil, apperror.ValidationFailed("displayName", "display name must be 50 characters or less")
	}

	if err := guard(s.backend, s.limiter, "signup", email); err != nil {
		return nil, err
	}

	displayName = validate.SanitizeHTML(displayName)

	var session *supabase.Session
	err := supabase.WithTimeout(ctx, writeTimeout, "signup", func(ctx context.Context) error {
		var callErr error
		session, callErr = s.backend.Auth().SignUp(ctx, email, password, map[string]any{
			"display_name": displayName,
		})
		return callErr
	})
	if err != nil {
		return nil, mapErr(err, "account")
	}

	// Best-effort profile row. Providers that require email confirmation
	// return no access token yet; the profile is created on first update
	// instead.
	if session.AccessToken != "" && session.User != nil {
		if perr := s.profiles.Ensure(ctx, session.AccessToken, session.User.ID, email, displayName); perr != nil {
			s.logger.Warn("profile creation failed after signup",
				slog.String("userId", session.User.ID),
				slog.String("error", perr.Error()),
			)
		}
	}

	s.logger.Info("user signed up", slog.String("email", email))
	return session, nil
}

// Login authenticates with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*supabase.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if res := validate.Email(email); !res.Valid {
		return nil, apperror.ValidationFailed("email", res.Message())
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	if err := guard(s.backend, s.limiter, "login", email); err != nil {
		return nil, err
	}

	var session *supabase.Session
	err := supabase.WithTimeout(ctx, writeTimeout, "login", func(ctx context.Context) error {
		var callErr error
		session, callErr = s.backend.Auth().SignInWithPassword(ctx, email, password)
		return callErr
	})
	if err != nil {
		return nil, mapErr(err, "account")
	}

	s.logger.Info("user logged in", slog.String("email", email))
	return session, nil
}

// Refresh exchanges a refresh token for a fresh session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*supabase.Session, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthenticated("empty refresh token")
	}
	if !s.backend.Configured() {
		return nil, apperror.Configuration()
	}

	var session *supabase.Session
	err := supabase.WithTimeout(ctx, writeTimeout, "refresh session", func(ctx context.Context) error {
		var callErr error
		session, callErr = s.backend.Auth().RefreshToken(ctx, refreshToken)
		return callErr
	})
	if err != nil {
		return nil, mapErr(err, "session")
	}
	return session, nil
}

// Logout revokes the session with the provider. Callers clear local state
// regardless of the result, so a failed network call can never leave the
// client stuck logged in.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if !s.backend.Configured() {
		return apperror.Configuration()
	}

	err := supabase.WithTimeout(ctx, writeTimeout, "logout", func(ctx context.Context) error {
		return s.backend.Auth().SignOut(ctx, accessToken)
	})
	if err != nil {
		return mapErr(err, "session")
	}

	s.logger.Info("user logged out")
	return nil
}
