package store

import (
	"sync"

	"github.com/rs/xid"
)

// ToastKind classifies a toast for rendering.
type ToastKind string

const (
	ToastInfo    ToastKind = "info"
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is one transient notification.
type Toast struct {
	ID      string
	Kind    ToastKind
	Message string
}

// UIStore holds transient UI state: the toast queue. Toasts are explicit
// state, not fire-and-forget logging, so the renderer decides when each one
// disappears.
type UIStore struct {
	mu     sync.Mutex
	toasts []Toast
	subs   *subscribers
}

// NewUIStore creates an empty UI store.
func NewUIStore() *UIStore {
	return &UIStore{subs: newSubscribers()}
}

// Subscribe registers a change callback and returns its unsubscribe function.
func (s *UIStore) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// Push adds a toast and returns its id for later dismissal.
func (s *UIStore) Push(kind ToastKind, message string) string {
	t := Toast{ID: xid.New().String(), Kind: kind, Message: message}
	s.mu.Lock()
	s.toasts = append(s.toasts, t)
	s.mu.Unlock()
	s.subs.notify()
	return t.ID
}

// Dismiss removes a toast by id. Unknown ids are ignored.
func (s *UIStore) Dismiss(id string) {
	s.mu.Lock()
	kept := s.toasts[:0]
	for _, t := range s.toasts {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.toasts = kept
	s.mu.Unlock()
	s.subs.notify()
}

// Toasts returns a copy of the pending toasts, oldest first.
func (s *UIStore) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

// Close drops all subscribers.
func (s *UIStore) Close() {
	s.subs.close()
}
