// Package store provides the client-side observable state containers: the
// posts feed and transient UI state. Each store hands out snapshots (copies)
// and notifies subscribers on every mutation, so readers never observe a
// half-applied update.
package store

import "sync"

// subscribers is the shared subscription list used by both stores.
type subscribers struct {
	mu     sync.Mutex
	next   int
	byID   map[int]func()
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{byID: make(map[int]func())}
}

// add registers fn and returns its unsubscribe function.
func (s *subscribers) add(fn func()) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	if !s.closed {
		s.byID[id] = fn
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.byID, id)
		s.mu.Unlock()
	}
}

// notify invokes every subscriber outside the lock.
func (s *subscribers) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.byID))
	for _, fn := range s.byID {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// close drops all subscribers; later add calls register nothing.
func (s *subscribers) close() {
	s.mu.Lock()
	s.closed = true
	s.byID = make(map[int]func())
	s.mu.Unlock()
}
