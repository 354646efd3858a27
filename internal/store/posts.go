package store

import (
	"sync"

	"github.com/sakif/blogia/internal/model"
)

// PostsSnapshot is an immutable view of the posts store at one moment.
type PostsSnapshot struct {
	Posts   []model.Post
	Current *model.Post
	Loading bool
	Err     error
}

// PostsStore holds the post list and the currently viewed post. It is the
// single source of truth for feed state: services fetch, the store records,
// subscribers render.
type PostsStore struct {
	mu      sync.Mutex
	posts   []model.Post
	current *model.Post
	loading bool
	err     error
	subs    *subscribers
}

// NewPostsStore creates an empty posts store.
func NewPostsStore() *PostsStore {
	return &PostsStore{subs: newSubscribers()}
}

// Snapshot returns a copy of the current state.
func (s *PostsStore) Snapshot() PostsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := PostsSnapshot{
		Posts:   make([]model.Post, len(s.posts)),
		Loading: s.loading,
		Err:     s.err,
	}
	copy(snap.Posts, s.posts)
	if s.current != nil {
		cur := *s.current
		snap.Current = &cur
	}
	return snap
}

// Subscribe registers a change callback and returns its unsubscribe function.
func (s *PostsStore) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// SetLoading flips the loading flag and clears any stale error when a new
// fetch starts.
func (s *PostsStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	if loading {
		s.err = nil
	}
	s.mu.Unlock()
	s.subs.notify()
}

// SetPosts replaces the feed after a successful list fetch.
func (s *PostsStore) SetPosts(posts []model.Post) {
	s.mu.Lock()
	s.posts = make([]model.Post, len(posts))
	copy(s.posts, posts)
	s.loading = false
	s.err = nil
	s.mu.Unlock()
	s.subs.notify()
}

// SetCurrent records the post being viewed. nil clears it.
func (s *PostsStore) SetCurrent(post *model.Post) {
	s.mu.Lock()
	if post != nil {
		p := *post
		s.current = &p
	} else {
		s.current = nil
	}
	s.loading = false
	s.err = nil
	s.mu.Unlock()
	s.subs.notify()
}

// SetError records a fetch failure. The existing posts stay visible so a
// transient failure does not blank the feed.
func (s *PostsStore) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.loading = false
	s.mu.Unlock()
	s.subs.notify()
}

// Upsert inserts or replaces one post in the feed, and refreshes Current when
// it is the same post. New posts go to the front.
func (s *PostsStore) Upsert(post model.Post) {
	s.mu.Lock()
	found := false
	for i := range s.posts {
		if s.posts[i].ID == post.ID {
			s.posts[i] = post
			found = true
			break
		}
	}
	if !found {
		s.posts = append([]model.Post{post}, s.posts...)
	}
	if s.current != nil && s.current.ID == post.ID {
		p := post
		s.current = &p
	}
	s.mu.Unlock()
	s.subs.notify()
}

// Remove drops a post from the feed and clears Current if it was the one
// removed.
func (s *PostsStore) Remove(postID string) {
	s.mu.Lock()
	kept := s.posts[:0]
	for _, p := range s.posts {
		if p.ID != postID {
			kept = append(kept, p)
		}
	}
	s.posts = kept
	if s.current != nil && s.current.ID == postID {
		s.current = nil
	}
	s.mu.Unlock()
	s.subs.notify()
}

// Close drops all subscribers.
func (s *PostsStore) Close() {
	s.subs.close()
}
