package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogia/internal/apperror"
	"github.com/sakif/blogia/internal/ratelimit"
	"github.com/sakif/blogia/internal/supabase"
)

const (
	testActorID = "550e8400-e29b-41d4-a716-446655440001"
	testPostID  = "550e8400-e29b-41d4-a716-446655440002"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestBackend points a real client at a fake PostgREST/auth server.
func newTestBackend(t *testing.T, h http.Handler) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return supabase.New(supabase.Config{
		URL:     srv.URL,
		AnonKey: strings.Repeat("k", 24),
		Timeout: 5 * time.Second,
	})
}

func bigLimiter() *ratelimit.Limiter {
	return ratelimit.New(time.Minute, 1000)
}

// echoInsertHandler answers POST /rest/v1/posts by echoing the inserted row
// back with ids filled in, the way return=representation does.
func echoInsertHandler(t *testing.T, captured *map[string]any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/posts", r.URL.Path)

		var rows []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		require.Len(t, rows, 1)

		row := rows[0]
		if captured != nil {
			*captured = row
		}
		row["id"] = testPostID

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{row})
	})
}

func TestCreatePost(t *testing.T) {
	var inserted map[string]any
	backend := newTestBackend(t, echoInsertHandler(t, &inserted))
	svc := NewPostService(backend, bigLimiter(), testLogger())

	content := "Hi " + strings.Repeat("word ", 250)
	post, err := svc.Create(context.Background(), "token", testActorID, CreatePostInput{
		Title:     "My first post",
		Content:   content,
		Published: true,
	})
	require.NoError(t, err)

	assert.Equal(t, testPostID, post.ID)
	assert.Equal(t, testActorID, post.AuthorID)
	assert.True(t, post.Published)

	// 251 words reads in two minutes at 200 wpm.
	assert.Equal(t, float64(2), inserted["read_time"])

	// Excerpt defaults to the first 200 characters of the content.
	excerpt, _ := inserted["excerpt"].(string)
	assert.Len(t, []rune(excerpt), 200)
	assert.True(t, strings.HasPrefix(excerpt, "Hi word"))
}

func TestCreatePostSanitizes(t *testing.T) {
	var inserted map[string]any
	backend := newTestBackend(t, echoInsertHandler(t, &inserted))
	svc := NewPostService(backend, bigLimiter(), testLogger())

	_, err := svc.Create(context.Background(), "token", testActorID, CreatePostInput{
		Title:   `<b>Bold</b> title`,
		Content: `Hello <script>alert(1)</script> world`,
	})
	require.NoError(t, err)

	title, _ := inserted["title"].(string)
	assert.NotContains(t, title, "<")
	assert.Contains(t, title, "&lt;b&gt;")

	content, _ := inserted["content"].(string)
	assert.NotContains(t, strings.ToLower(content), "<script")
	assert.Contains(t, content, "Hello")
	assert.Contains(t, content, "world")
}

func TestCreatePostValidation(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("validation failures must not reach the backend")
	}))
	svc := NewPostService(backend, bigLimiter(), testLogger())
	ctx := context.Background()

	tests := []struct {
		name  string
		actor string
		in    CreatePostInput
		field string
	}{
		{"bad actor id", "not-a-uuid", CreatePostInput{Title: "t", Content: "c"}, "actorId"},
		{"empty title", testActorID, CreatePostInput{Content: "c"}, "title"},
		{"whitespace title", testActorID, CreatePostInput{Title: "   ", Content: "c"}, "title"},
		{"title too long", testActorID, CreatePostInput{Title: strings.Repeat("a", 201), Content: "c"}, "title"},
		{"empty content", testActorID, CreatePostInput{Title: "t"}, "content"},
		{"content too long", testActorID, CreatePostInput{Title: "t", Content: strings.Repeat("a", 100001)}, "content"},
		{"excerpt too long", testActorID, CreatePostInput{Title: "t", Content: "c", Excerpt: strings.Repeat("a", 501)}, "excerpt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "token", tt.actor, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestCreatePostRateLimited(t *testing.T) {
	backend := newTestBackend(t, echoInsertHandler(t, nil))
	svc := NewPostService(backend, ratelimit.New(time.Minute, 1), testLogger())
	ctx := context.Background()

	in := CreatePostInput{Title: "t", Content: "c"}
	_, err := svc.Create(ctx, "token", testActorID, in)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "token", testActorID, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrRateLimited))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Greater(t, appErr.RetryAfter, time.Duration(0))
}

func TestCreatePostUnconfiguredBackend(t *testing.T) {
	backend := supabase.New(supabase.Config{})
	svc := NewPostService(backend, bigLimiter(), testLogger())

	_, err := svc.Create(context.Background(), "token", testActorID, CreatePostInput{Title: "t", Content: "c"})
	assert.True(t, errors.Is(err, apperror.ErrConfiguration))
}

func TestGetPostNotFound(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`))
	}))
	svc := NewPostService(backend, bigLimiter(), testLogger())

	_, err := svc.Get(context.Background(), "token", testPostID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestListPostsFilters(t *testing.T) {
	var gotQuery string
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	svc := NewPostService(backend, bigLimiter(), testLogger())
	ctx := context.Background()

	t.Run("public feed is published only", func(t *testing.T) {
		_, err := svc.List(ctx, "", ListPostsOptions{})
		require.NoError(t, err)
		assert.Contains(t, gotQuery, "published=eq.true")
		assert.Contains(t, gotQuery, "order=created_at.desc")
		assert.Contains(t, gotQuery, "limit=20")
	})

	t.Run("author dashboard includes drafts", func(t *testing.T) {
		_, err := svc.List(ctx, "token", ListPostsOptions{AuthorID: testActorID, IncludeDrafts: true})
		require.NoError(t, err)
		assert.Contains(t, gotQuery, "author_id=eq."+testActorID)
		assert.NotContains(t, gotQuery, "published=eq.true")
	})

	t.Run("limit is clamped", func(t *testing.T) {
		_, err := svc.List(ctx, "", ListPostsOptions{Limit: 5000})
		require.NoError(t, err)
		assert.Contains(t, gotQuery, "limit=100")
	})
}

func TestUpdatePostOwnership(t *testing.T) {
	t.Run("zero rows on a missing post is not found", func(t *testing.T) {
		backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Both the PATCH and the follow-up SELECT match nothing.
			w.Write([]byte(`[]`))
		}))
		svc := NewPostService(backend, bigLimiter(), testLogger())

		title := "new title"
		_, err := svc.Update(context.Background(), "token", testActorID, testPostID, UpdatePostInput{Title: &title})
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})

	t.Run("zero rows on someone else's post is forbidden", func(t *testing.T) {
		backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPatch {
				w.Write([]byte(`[]`))
				return
			}
			// The existence probe sees the post (RLS allows reading it).
			w.Write([]byte(`[{"id":"` + testPostID + `","author_id":"someone-else"}]`))
		}))
		svc := NewPostService(backend, bigLimiter(), testLogger())

		title := "new title"
		_, err := svc.Update(context.Background(), "token", testActorID, testPostID, UpdatePostInput{Title: &title})
		assert.True(t, errors.Is(err, apperror.ErrAuthorization))
	})
}

func TestUpdatePostRecomputesDerivedFields(t *testing.T) {
	var patched map[string]any
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		json.NewEncoder(w).Encode([]map[string]any{{
			"id": testPostID, "author_id": testActorID,
		}})
	}))
	svc := NewPostService(backend, bigLimiter(), testLogger())

	content := strings.Repeat("word ", 450)
	_, err := svc.Update(context.Background(), "token", testActorID, testPostID, UpdatePostInput{Content: &content})
	require.NoError(t, err)

	assert.Equal(t, float64(3), patched["read_time"], "450 words reads in 3 minutes")
	excerpt, _ := patched["excerpt"].(string)
	assert.Len(t, []rune(excerpt), 200, "excerpt re-derived from the new content")
}

func TestDeletePost(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Contains(t, r.URL.RawQuery, "id=eq."+testPostID)
		assert.Contains(t, r.URL.RawQuery, "author_id=eq."+testActorID)
		w.Write([]byte(`[{"id":"` + testPostID + `","author_id":"` + testActorID + `"}]`))
	}))
	svc := NewPostService(backend, bigLimiter(), testLogger())

	err := svc.Delete(context.Background(), "token", testActorID, testPostID)
	assert.NoError(t, err)
}
