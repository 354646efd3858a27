package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogia/internal/apperror"
)

const testCommentID = "550e8400-e29b-41d4-a716-446655440003"

func TestAddComment(t *testing.T) {
	var inserted map[string]any
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/comments", r.URL.Path)
		var rows []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		require.Len(t, rows, 1)
		inserted = rows[0]
		inserted["id"] = testCommentID
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{inserted})
	}))
	svc := NewCommentService(backend, bigLimiter(), testLogger())

	comment, err := svc.Add(context.Background(), "token", testActorID, testPostID, `Nice <b>post</b>!`)
	require.NoError(t, err)

	assert.Equal(t, testCommentID, comment.ID)
	assert.Equal(t, testPostID, comment.PostID)

	content, _ := inserted["content"].(string)
	assert.NotContains(t, content, "<b>")
	assert.Contains(t, content, "&lt;b&gt;")
}

func TestAddCommentValidation(t *testing.T) {
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("validation failures must not reach the backend")
	}))
	svc := NewCommentService(backend, bigLimiter(), testLogger())
	ctx := context.Background()

	_, err := svc.Add(ctx, "token", testActorID, "bad-id", "hello")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.Add(ctx, "token", testActorID, testPostID, "   ")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.Add(ctx, "token", testActorID, testPostID, strings.Repeat("a", 2001))
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestListCommentsOldestFirst(t *testing.T) {
	var gotQuery string
	backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"` + testCommentID + `","post_id":"` + testPostID + `","author_id":"` + testActorID + `"}]`))
	}))
	svc := NewCommentService(backend, bigLimiter(), testLogger())

	comments, err := svc.ListForPost(context.Background(), "token", testPostID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Contains(t, gotQuery, "order=created_at.asc")
	assert.Contains(t, gotQuery, "post_id=eq."+testPostID)
}

func TestDeleteCommentOnlyOwn(t *testing.T) {
	t.Run("delete scopes to the author", func(t *testing.T) {
		var gotQuery string
		backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodDelete, r.Method)
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`[{"id":"` + testCommentID + `","post_id":"` + testPostID + `","author_id":"` + testActorID + `"}]`))
		}))
		svc := NewCommentService(backend, bigLimiter(), testLogger())

		err := svc.Delete(context.Background(), "token", testActorID, testCommentID)
		require.NoError(t, err)
		assert.Contains(t, gotQuery, "id=eq."+testCommentID)
		assert.Contains(t, gotQuery, "author_id=eq."+testActorID)
	})

	t.Run("zero rows is not found", func(t *testing.T) {
		backend := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		svc := NewCommentService(backend, bigLimiter(), testLogger())

		err := svc.Delete(context.Background(), "token", testActorID, testCommentID)
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})
}
