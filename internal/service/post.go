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

// PostService handles post CRUD against the backend row store. Posts are
// mutable and deletable only by their author; the backend's row-level
// security is the authority and this service surfaces its verdicts.
type PostService struct {
	backend *supabase.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewPostService creates a PostService with its dependencies.
func NewPostService(backend *supabase.Client, limiter *ratelimit.Limiter, logger *slog.Logger) *PostService {
	return &PostService{backend: backend, limiter: limiter, logger: logger}
}

// CreatePostInput is the author-supplied material for a new post.
type CreatePostInput struct {
	Title         string
	Content       string
	Excerpt       string
	FeaturedImage string
	Published     bool
}

// UpdatePostInput carries partial updates. Nil fields are left unchanged.
type UpdatePostInput struct {
	Title         *string
	Content       *string
	Excerpt       *string
	FeaturedImage *string
	Published     *bool
}

// ListPostsOptions filters List. With an empty AuthorID the public published
// feed is returned; IncludeDrafts only applies when AuthorID is set (the
// author's own dashboard).
type ListPostsOptions struct {
	AuthorID      string
	IncludeDrafts bool
	Limit         int
	Offset        int
}

// postWrite is the snake_case row payload for inserts and updates.
type postWrite struct {
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	Excerpt       *string `json:"excerpt,omitempty"`
	FeaturedImage *string `json:"featured_image,omitempty"`
	AuthorID      *string `json:"author_id,omitempty"`
	Published     *bool   `json:"published,omitempty"`
	ReadTime      *int    `json:"read_time,omitempty"`
}

// Create validates, sanitizes and stores a new post. The excerpt defaults to
// the first 200 characters of content, and the read time is computed from the
// content.
func (s *PostService) Create(ctx context.Context, token, actorID string, in CreatePostInput) (*model.Post, error) {
	if res := validate.UUID(actorID); !res.Valid {
		return nil, apperror.ValidationFailed("actorId", res.Message())
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	if len(in.Content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	if len(in.Excerpt) > MaxExcerptLength {
		return nil, apperror.ValidationFailed("excerpt",
			fmt.Sprintf("excerpt must be %d characters or less", MaxExcerptLength))
	}

	if err := guard(s.backend, s.limiter, "create-post", actorID); err != nil {
		return nil, err
	}

	title = validate.SanitizeHTML(title)
	content := validate.SanitizeRichText(in.Content)
	excerpt := strings.TrimSpace(in.Excerpt)
	if excerpt == "" {
		excerpt = model.Excerpt(content)
	}
	excerpt = validate.SanitizeHTML(excerpt)
	readTime := model.ReadTime(content)

	write := postWrite{
		Title:     &title,
		Content:   &content,
		Excerpt:   &excerpt,
		AuthorID:  &actorID,
		Published: &in.Published,
		ReadTime:  &readTime,
	}
	if img := strings.TrimSpace(in.FeaturedImage); img != "" {
		write.FeaturedImage = &img
	}

	var rows []model.PostRow
	err := supabase.WithTimeout(ctx, writeTimeout, "create post", func(ctx context.Context) error {
		return s.backend.Database().From("posts").
			Insert([]postWrite{write}).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return nil, mapErr(err, "post")
	}
	if len(rows) == 0 {
		return nil, mapErr(fmt.Errorf("insert returned no rows"), "post")
	}

	post, convErr := rows[0].ToDomain()
	if convErr != nil {
		return nil, mapErr(convErr, "post")
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("authorId", actorID),
		slog.Bool("published", post.Published),
	)
	return &post, nil
}

// Get fetches a single post with its author resolved.
func (s *PostService) Get(ctx context.Context, token, id string) (*model.Post, error) {
	if res := validate.UUID(id); !res.Valid {
		return nil, apperror.ValidationFailed("id", res.Message())
	}
	if !s.backend.Configured() {
		return nil, apperror.Configuration()
	}

	var row model.PostRow
	err := supabase.WithTimeout(ctx, readTimeout, "fetch post", func(ctx context.Context) error {
		return s.backend.Database().From("posts").
			Select("*, profiles(*)").
			Eq("id", id).
			Single().
			WithToken(token).
			ExecuteInto(ctx, &row)
	})
	if err != nil {
		return nil, mapErr(err, "post")
	}

	post, convErr := row.ToDomain()
	if convErr != nil {
		return nil, mapErr(convErr, "post")
	}
	return &post, nil
}

// List returns posts newest-first with authors resolved.
func (s *PostService) List(ctx context.Context, token string, opts ListPostsOptions) ([]model.Post, error) {
	if opts.AuthorID != "" {
		if res := validate.UUID(opts.AuthorID); !res.Valid {
			return nil, apperror.ValidationFailed("authorId", res.Message())
		}
	}
	if !s.backend.Configured() {
		return nil, apperror.Configuration()
	}

	limit := clampLimit(opts.Limit)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	q := s.backend.Database().From("posts").
		Select("*, profiles(*)").
		Order("created_at", true).
		Limit(limit).
		Offset(offset).
		WithToken(token)
	if opts.AuthorID != "" {
		q = q.Eq("author_id", opts.AuthorID)
		if !opts.IncludeDrafts {
			q = q.Eq("published", true)
		}
	} else {
		q = q.Eq("published", true)
	}

	var rows []model.PostRow
	err := supabase.WithTimeout(ctx, readTimeout, "list posts", func(ctx context.Context) error {
		return q.ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return nil, mapErr(err, "post")
	}

	posts, convErr := model.PostsToDomain(rows)
	if convErr != nil {
		return nil, mapErr(convErr, "post")
	}
	return posts, nil
}

// Update applies a partial update to the actor's own post. The read time is
// recomputed whenever content changes, and an emptied excerpt is re-derived
// from the new content.
func (s *PostService) Update(ctx context.Context, token, actorID, postID string, in UpdatePostInput) (*model.Post, error) {
	if res := validate.UUID(postID); !res.Valid {
		return nil, apperror.ValidationFailed("id", res.Message())
	}
	if res := validate.UUID(actorID); !res.Valid {
		return nil, apperror.ValidationFailed("actorId", res.Message())
	}

	var write postWrite

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title is required")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		title = validate.SanitizeHTML(title)
		write.Title = &title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, apperror.ValidationFailed("content", "content is required")
		}
		if len(*in.Content) > MaxContentLength {
			return nil, apperror.ValidationFailed("content",
				fmt.Sprintf("content must be %d characters or less", MaxContentLength))
		}
		content := validate.SanitizeRichText(*in.Content)
		readTime := model.ReadTime(content)
		write.Content = &content
		write.ReadTime = &readTime

		// Content changed: refresh a defaulted excerpt unless the caller
		// supplies one in the same update.
		if in.Excerpt == nil {
			excerpt := validate.SanitizeHTML(model.Excerpt(content))
			write.Excerpt = &excerpt
		}
	}
	if in.Excerpt != nil {
		if len(*in.Excerpt) > MaxExcerptLength {
			return nil, apperror.ValidationFailed("excerpt",
				fmt.Sprintf("excerpt must be %d characters or less", MaxExcerptLength))
		}
		excerpt := validate.SanitizeHTML(strings.TrimSpace(*in.Excerpt))
		write.Excerpt = &excerpt
	}
	if in.FeaturedImage != nil {
		img := strings.TrimSpace(*in.FeaturedImage)
		write.FeaturedImage = &img
	}
	if in.Published != nil {
		write.Published = in.Published
	}

	if err := guard(s.backend, s.limiter, "update-post", actorID); err != nil {
		return nil, err
	}

	var rows []model.PostRow
	err := supabase.WithTimeout(ctx, writeTimeout, "update post", func(ctx context.Context) error {
		return s.backend.Database().From("posts").
			Update(write).
			Eq("id", postID).
			Eq("author_id", actorID).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return nil, mapErr(err, "post")
	}
	if len(rows) == 0 {
		return nil, s.ownershipFailure(ctx, token, postID)
	}

	post, convErr := rows[0].ToDomain()
	if convErr != nil {
		return nil, mapErr(convErr, "post")
	}

	s.logger.Info("post updated", slog.String("id", postID), slog.String("authorId", actorID))
	return &post, nil
}

// Delete removes the actor's own post. Hard delete: there is no soft-delete
// or versioning.
func (s *PostService) Delete(ctx context.Context, token, actorID, postID string) error {
	if res := validate.UUID(postID); !res.Valid {
		return apperror.ValidationFailed("id", res.Message())
	}
	if res := validate.UUID(actorID); !res.Valid {
		return apperror.ValidationFailed("actorId", res.Message())
	}
	if err := guard(s.backend, s.limiter, "delete-post", actorID); err != nil {
		return err
	}

	var rows []model.PostRow
	err := supabase.WithTimeout(ctx, writeTimeout, "delete post", func(ctx context.Context) error {
		return s.backend.Database().From("posts").
			Delete().
			Eq("id", postID).
			Eq("author_id", actorID).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err != nil {
		return mapErr(err, "post")
	}
	if len(rows) == 0 {
		return s.ownershipFailure(ctx, token, postID)
	}

	s.logger.Info("post deleted", slog.String("id", postID), slog.String("authorId", actorID))
	return nil
}

// ownershipFailure distinguishes "post doesn't exist" from "post belongs to
// someone else" after a write matched zero rows.
func (s *PostService) ownershipFailure(ctx context.Context, token, postID string) error {
	var rows []model.PostRow
	err := supabase.WithTimeout(ctx, readTimeout, "fetch post", func(ctx context.Context) error {
		return s.backend.Database().From("posts").
			Select("id, author_id").
			Eq("id", postID).
			WithToken(token).
			ExecuteInto(ctx, &rows)
	})
	if err == nil && len(rows) > 0 {
		return apperror.Forbidden("post")
	}
	return apperror.NotFound("post", postID)
}
