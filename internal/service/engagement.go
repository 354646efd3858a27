package service

import (
	"context"
	"log/slog"

	"github.com/sakif/blogia/internal/apperror"
	"github.com/sakif/blogia/internal/model"
	"github.com/sakif/blogia/internal/ratelimit"
	"github.com/sakif/blogia/internal/supabase"
	"github.com/sakif/blogia/internal/validate"
)

// EngagementService handles likes and bookmarks, which are (post, user)
// pairs with an at-most-one uniqueness invariant enforced by the backend,
// plus the decorative stats shown alongside posts.
//
// Mutations (toggles) always propagate errors. Decorative reads (counts,
// liked/bookmarked flags) swallow errors and return safe defaults so a
// transient stats failure never blocks rendering the post itself; Stats.Known
// tells the UI whether the zeros are real.
type EngagementService struct {
	backend *supabase.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewEngagementService creates an EngagementService with its dependencies.
func NewEngagementService(backend *supabase.Client, limiter *ratelimit.Limiter, logger *slog.Logger) *EngagementService {
	return &EngagementService{backend: backend, limiter: limiter, logger: logger}
}

type pairWrite struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

// ToggleLike adds the user's like if absent, removes it if present, and
// reports whether the post is liked afterwards. Repeated toggle pairs are
// idempotent on the visible count.
func (s *EngagementService) ToggleLike(ctx context.Context, token, actorID, postID string) (bool, error) {
	return s.toggle(ctx, token, actorID, postID, "likes", "toggle-like", "like")
}

// ToggleBookmark is ToggleLike for bookmarks.
func (s *EngagementService) ToggleBookmark(ctx context.Context, token, actorID, postID string) (bool, error) {
	return s.toggle(ctx, token, actorID, postID, "bookmarks", "toggle-bookmark", "bookmark")
}

func (s *EngagementService) toggle(ctx context.Context, token, actorID, postID, table, action, resource string) (bool, error) {
	if res := validate.UUID(postID); !res.Valid {
		return false, apperror.ValidationFailed("postId", res.Message())
	}
	if res := validate.UUID(actorID); !res.Valid {
		return false, apperror.ValidationFailed("actorId", res.Message())
	}
	if err := guard(s.backend, s.limiter, action, actorID); err != nil {
		return false, err
	}

	exists, err := s.pairExists(ctx, token, table, postID, actorID)
	if err != nil {
		return false, mapErr(err, resource)
	}

	if exists {
		err = supabase.WithTimeout(ctx, writeTimeout, "remove "+resource, func(ctx context.Context) error {
			_, execErr := s.backend.Database().From(table).
				Delete().
				Eq("post_id", postID).
				Eq("user_id", actorID).
				WithToken(token).
				Execute(ctx)
			return execErr
		})
		if err != nil {
			return true, mapErr(err, resource)
		}
		s.logger.Info(resource+" removed", slog.String("postId", postID), slog.String("userId", actorID))
		return false, nil
	}

	err = supabase.WithTimeout(ctx, writeTimeout, "add "+resource, func(ctx context.Context) error {
		_, execErr := s.backend.Database().From(table).
			Insert([]pairWrite{{PostID: postID, UserID: actorID}}).
			WithToken(token).
			Execute(ctx)
		return execErr
	})
	if err != nil {
		return false, mapErr(err, resource)
	}
	s.logger.Info(resource+" added", slog.String("postId", postID), slog.String("userId", actorID))
	return true, nil
}

func (s *EngagementService) pairExists(ctx context.Context, token, table, postID, userID string) (bool, error) {
	var rows []model.LikeRow
	err := supabase.WithTimeout(ctx, readTimeout, "check "+table, func(ctx context.Context) error {
		return s.backend.Database().From(table).
			Select("post_id, user_id").
			Eq("post_id", postID).
			Eq("user_id", userID).
			Limit(1).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Stats gathers the decorative engagement data for a post. viewerID may be
// empty for anonymous readers, in which case the Liked/Bookmarked flags stay
// false. Failures are swallowed into defaults; Known reports whether the
// counts actually loaded.
func (s *EngagementService) Stats(ctx context.Context, token, viewerID, postID string) model.Stats {
	stats := model.Stats{}

	if res := validate.UUID(postID); !res.Valid {
		return stats
	}
	if !s.backend.Configured() {
		return stats
	}

	likeCount, likeErr := s.count(ctx, token, "likes", postID)
	commentCount, commentErr := s.count(ctx, token, "comments", postID)
	if likeErr != nil || commentErr != nil {
		s.logger.Warn("stats fetch failed, rendering defaults",
			slog.String("postId", postID),
			slog.Any("likeErr", likeErr),
			slog.Any("commentErr", commentErr),
		)
	} else {
		stats.LikeCount = likeCount
		stats.CommentCount = commentCount
		stats.Known = true
	}

	if viewerID != "" {
		if res := validate.UUID(viewerID); res.Valid {
			if liked, err := s.pairExists(ctx, token, "likes", postID, viewerID); err == nil {
				stats.Liked = liked
			}
			if bookmarked, err := s.pairExists(ctx, token, "bookmarks", postID, viewerID); err == nil {
				stats.Bookmarked = bookmarked
			}
		}
	}

	return stats
}

func (s *EngagementService) count(ctx context.Context, token, table, postID string) (int64, error) {
	var n int64
	err := supabase.WithTimeout(ctx, readTimeout, "count "+table, func(ctx context.Context) error {
		count, countErr := s.backend.Database().From(table).
			Eq("post_id", postID).
			WithToken(token).
			ExecuteCount(ctx)
		n = count
		return countErr
	})
	return n, err
}

// ListBookmarked returns the posts the user has bookmarked, newest bookmark
// first.
func (s *EngagementService) ListBookmarked(ctx context.Context, token, actorID string) ([]model.Post, error) {
	if res := validate.UUID(actorID); !res.Valid {
		return nil, apperror.ValidationFailed("actorId", res.Message())
	}
	if !s.backend.Configured() {
		return nil, apperror.Configuration()
	}

	// Embed the post (and its author) through the bookmark row.
	var rows []struct {
		CreatedAt string         `json:"created_at"`
		Post      *model.PostRow `json:"posts"`
	}
	err := supabase.WithTimeout(ctx, readTimeout, "list bookmarks", func(ctx context.Context) error {
		return s.backend.Database().From("bookmarks").
			Select("created_at, posts(*, profiles(*))").
			Eq("user_id", actorID).
			Order("created_at", true).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return nil, mapErr(err, "bookmark")
	}

	posts := make([]model.Post, 0, len(rows))
	for _, r := range rows {
		if r.Post == nil {
			continue // post was deleted after being bookmarked
		}
		p, convErr := r.Post.ToDomain()
		if convErr != nil {
			return nil, mapErr(convErr, "bookmark")
		}
		posts = append(posts, p)
	}
	return posts, nil
}
