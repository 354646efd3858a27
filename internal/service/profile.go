package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blogia/internal/apperror"
	"github.com/sakif/blogia/internal/model"
	"github.com/sakif/blogia/internal/ratelimit"
	"github.com/sakif/blogia/internal/supabase"
	"github.com/sakif/blogia/internal/validate"
)

// ProfileService handles the profiles table: the public identity (display
// name, avatar) attached to each auth account.
type ProfileService struct {
	backend *supabase.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewProfileService creates a ProfileService with its dependencies.
func NewProfileService(backend *supabase.Client, limiter *ratelimit.Limiter, logger *slog.Logger) *ProfileService {
	return &ProfileService{backend: backend, limiter: limiter, logger: logger}
}

type profileWrite struct {
	ID          *string `json:"id,omitempty"`
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Get fetches a user's profile.
func (s *ProfileService) Get(ctx context.Context, token, userID string) (*model.User, error) {
	if res := validate.UUID(userID); !res.Valid {
		return nil, apperror.ValidationFailed("userId", res.Message())
	}
	if !s.backend.Configured() {
		return nil, apperror.Configuration()
	}

	var row model.ProfileRow
	err := supabase.WithTimeout(ctx, readTimeout, "fetch profile", func(ctx context.Context) error {
		return s.backend.Database().From("profiles").
			Select("*").
			Eq("id", userID).
			Single().
			WithToken(token).
			ExecuteInto(ctx, &row)
	})
	if err != nil {
		return nil, mapErr(err, "profile")
	}

	user, convErr := row.ToDomain()
	if convErr != nil {
		return nil, mapErr(convErr, "profile")
	}
	return &user, nil
}

// Update changes the actor's display name and/or avatar URL. Everything else
// about a user is immutable from the client.
func (s *ProfileService) Update(ctx context.Context, token, actorID string, displayName, avatarURL *string) (*model.User, error) {
	if res := validate.UUID(actorID); !res.Valid {
		return nil, apperror.ValidationFailed("actorId", res.Message())
	}

	var write profileWrite
	if displayName != nil {
		name := strings.TrimSpace(*displayName)
		if name == "" {
			return nil, apperror.ValidationFailed("displayName", "display name is required")
		}
		if len(name) > MaxDisplayNameLength {
			return nil, apperror.ValidationFailed("displayName",
				fmt.Sprintf("display name must be %d characters or less", MaxDisplayNameLength))
		}
		name = validate.SanitizeHTML(name)
		write.DisplayName = &name
	}
	if avatarURL != nil {
		url := strings.TrimSpace(*avatarURL)
		write.AvatarURL = &url
	}
	if write.DisplayName == nil && write.AvatarURL == nil {
		return nil, apperror.ValidationFailed("profile", "nothing to update")
	}

	if err := guard(s.backend, s.limiter, "update-profile", actorID); err != nil {
		return nil, err
	}

	var rows []model.ProfileRow
	err := supabase.WithTimeout(ctx, writeTimeout, "update profile", func(ctx context.Context) error {
		return s.backend.Database().From("profiles").
			Update(write).
			Eq("id", actorID).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return nil, mapErr(err, "profile")
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("profile", actorID)
	}

	user, convErr := rows[0].ToDomain()
	if convErr != nil {
		return nil, mapErr(convErr, "profile")
	}

	s.logger.Info("profile updated", slog.String("userId", actorID))
	return &user, nil
}

// Ensure upserts the profile row for a freshly signed-up account. Callers
// treat failure as best-effort: signup succeeds even when the profile row
// can't be created yet (it is retried on the next profile update).
func (s *ProfileService) Ensure(ctx context.Context, token, userID, email, displayName string) error {
	if !s.backend.Configured() {
		return apperror.Configuration()
	}

	name := validate.SanitizeHTML(strings.TrimSpace(displayName))
	write := profileWrite{
		ID:          &userID,
		Email:       &email,
		DisplayName: &name,
	}

	err := supabase.WithTimeout(ctx, writeTimeout, "ensure profile", func(ctx context.Context) error {
		_, execErr := s.backend.Database().From("profiles").
			Upsert([]profileWrite{write}, "id").
			WithToken(token).
			Execute(ctx)
		return execErr
	})
	if err != nil {
		return mapErr(err, "profile")
	}
	return nil
}
