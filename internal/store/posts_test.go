package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogia/internal/model"
)

func TestPostsStoreSnapshotIsACopy(t *testing.T) {
	s := NewPostsStore()
	s.SetPosts([]model.Post{{ID: "a", Title: "original"}})

	snap := s.Snapshot()
	snap.Posts[0].Title = "mutated"

	assert.Equal(t, "original", s.Snapshot().Posts[0].Title)
}

func TestPostsStoreLoadingAndError(t *testing.T) {
	s := NewPostsStore()

	s.SetPosts([]model.Post{{ID: "a"}})
	s.SetError(errors.New("feed fetch failed"))

	snap := s.Snapshot()
	assert.Error(t, snap.Err)
	assert.Len(t, snap.Posts, 1, "a failed refresh keeps the stale feed visible")
	assert.False(t, snap.Loading)

	// Starting a new fetch clears the stale error.
	s.SetLoading(true)
	snap = s.Snapshot()
	assert.True(t, snap.Loading)
	assert.NoError(t, snap.Err)
}

func TestPostsStoreUpsert(t *testing.T) {
	s := NewPostsStore()
	s.SetPosts([]model.Post{{ID: "a", Title: "old"}, {ID: "b"}})

	t.Run("existing post is replaced in place", func(t *testing.T) {
		s.Upsert(model.Post{ID: "a", Title: "new"})
		snap := s.Snapshot()
		require.Len(t, snap.Posts, 2)
		assert.Equal(t, "new", snap.Posts[0].Title)
	})

	t.Run("new post goes to the front", func(t *testing.T) {
		s.Upsert(model.Post{ID: "c"})
		snap := s.Snapshot()
		require.Len(t, snap.Posts, 3)
		assert.Equal(t, "c", snap.Posts[0].ID)
	})

	t.Run("current is refreshed when it is the same post", func(t *testing.T) {
		s.SetCurrent(&model.Post{ID: "a", Title: "new"})
		s.Upsert(model.Post{ID: "a", Title: "newer"})
		assert.Equal(t, "newer", s.Snapshot().Current.Title)
	})
}

func TestPostsStoreRemove(t *testing.T) {
	s := NewPostsStore()
	s.SetPosts([]model.Post{{ID: "a"}, {ID: "b"}})
	s.SetCurrent(&model.Post{ID: "a"})

	s.Remove("a")

	snap := s.Snapshot()
	require.Len(t, snap.Posts, 1)
	assert.Equal(t, "b", snap.Posts[0].ID)
	assert.Nil(t, snap.Current)
}

func TestPostsStoreSubscribe(t *testing.T) {
	s := NewPostsStore()

	var calls int
	unsubscribe := s.Subscribe(func() { calls++ })

	s.SetPosts(nil)
	s.SetLoading(true)
	assert.Equal(t, 2, calls)

	unsubscribe()
	s.SetLoading(false)
	assert.Equal(t, 2, calls)
}

func TestPostsStoreCloseSilencesSubscribers(t *testing.T) {
	s := NewPostsStore()

	var calls int
	s.Subscribe(func() { calls++ })
	s.Close()

	s.SetPosts(nil)
	assert.Zero(t, calls)
}

func TestUIStoreToasts(t *testing.T) {
	s := NewUIStore()

	id1 := s.Push(ToastSuccess, "post created")
	s.Push(ToastError, "upload failed")

	toasts := s.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, ToastSuccess, toasts[0].Kind, "oldest first")
	assert.NotEqual(t, toasts[0].ID, toasts[1].ID)

	s.Dismiss(id1)
	toasts = s.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "upload failed", toasts[0].Message)

	s.Dismiss("unknown-id")
	assert.Len(t, s.Toasts(), 1)
}

func TestUIStoreSubscribe(t *testing.T) {
	s := NewUIStore()

	var calls int
	s.Subscribe(func() { calls++ })

	id := s.Push(ToastInfo, "hello")
	s.Dismiss(id)
	assert.Equal(t, 2, calls)
}
