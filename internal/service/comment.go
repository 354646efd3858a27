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

// CommentService handles comments. Any authenticated user can comment on a
// post; a comment is deletable by its author and never editable.
type CommentService struct {
	backend *supabase.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewCommentService creates a CommentService with its dependencies.
func NewCommentService(backend *supabase.Client, limiter *ratelimit.Limiter, logger *slog.Logger) *CommentService {
	return &CommentService{backend: backend, limiter: limiter, logger: logger}
}

type commentWrite struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	Content  string `json:"content"`
}

// Add creates a comment on a post.
func (s *CommentService) Add(ctx context.Context, token, actorID, postID, content string) (*model.Comment, error) {
	if res := validate.UUID(postID); !res.Valid {
		return nil, apperror.ValidationFailed("postId", res.Message())
	}
	if res := validate.UUID(actorID); !res.Valid {
		return nil, apperror.ValidationFailed("actorId", res.Message())
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment cannot be empty")
	}
	if len(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	if err := guard(s.backend, s.limiter, "add-comment", actorID); err != nil {
		return nil, err
	}

	write := commentWrite{
		PostID:   postID,
		AuthorID: actorID,
		Content:  validate.SanitizeHTML(content),
	}

	var rows []model.CommentRow
	err := supabase.WithTimeout(ctx, writeTimeout, "add comment", func(ctx context.Context) error {
		return s.backend.Database().From("comments").
			Insert([]commentWrite{write}).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return nil, mapErr(err, "comment")
	}
	if len(rows) == 0 {
		return nil, mapErr(fmt.Errorf("insert returned no rows"), "comment")
	}

	comment, convErr := rows[0].ToDomain()
	if convErr != nil {
		return nil, mapErr(convErr, "comment")
	}

	s.logger.Info("comment added",
		slog.String("id", comment.ID),
		slog.String("postId", postID),
		slog.String("authorId", actorID),
	)
	return &comment, nil
}

// ListForPost returns a post's comments oldest-first with authors resolved.
func (s *CommentService) ListForPost(ctx context.Context, token, postID string) ([]model.Comment, error) {
	if res := validate.UUID(postID); !res.Valid {
		return nil, apperror.ValidationFailed("postId", res.Message())
	}
	if !s.backend.Configured() {
		return nil, apperror.Configuration()
	}

	var rows []model.CommentRow
	err := supabase.WithTimeout(ctx, readTimeout, "list comments", func(ctx context.Context) error {
		return s.backend.Database().From("comments").
			Select("*, profiles(*)").
			Eq("post_id", postID).
			Order("created_at", false).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return nil, mapErr(err, "comment")
	}

	comments, convErr := model.CommentsToDomain(rows)
	if convErr != nil {
		return nil, mapErr(convErr, "comment")
	}
	return comments, nil
}

// Delete removes the actor's own comment.
func (s *CommentService) Delete(ctx context.Context, token, actorID, commentID string) error {
	if res := validate.UUID(commentID); !res.Valid {
		return apperror.ValidationFailed("id", res.Message())
	}
	if res := validate.UUID(actorID); !res.Valid {
		return apperror.ValidationFailed("actorId", res.Message())
	}
	if err := guard(s.backend, s.limiter, "delete-comment", actorID); err != nil {
		return err
	}

	var rows []model.CommentRow
	err := supabase.WithTimeout(ctx, writeTimeout, "delete comment", func(ctx context.Context) error {
		return s.backend.Database().From("comments").
			Delete().
			Eq("id", commentID).
			Eq("author_id", actorID).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return mapErr(err, "comment")
	}
	if len(rows) == 0 {
		// Zero rows matched: either the comment is gone or it belongs to
		// someone else. Both read as "nothing for you to delete".
		return apperror.NotFound("comment", commentID)
	}

	s.logger.Info("comment deleted", slog.String("id", commentID), slog.String("authorId", actorID))
	return nil
}
