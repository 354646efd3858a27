// Package session holds the client-side auth state container: the current
// user, the session lifecycle state machine, and auth-state subscriptions.
//
// The container mirrors the backend's view of the session; the backend owns
// the authoritative record. Local state is kept usable even when the backend
// misbehaves: profile fetches race a short timeout and fall back to a user
// synthesized from the session itself, and a failsafe ceiling guarantees the
// loading state always clears.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/blogia/internal/model"
	"github.com/sakif/blogia/internal/supabase"
)

// State is the container's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Event is an auth-state-change notification delivered to subscribers.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// Listener receives auth-state-change events. user is nil on sign-out.
type Listener func(event Event, user *model.User)

// Default budgets. The profile race is deliberately short: login must never
// block on a profile-store hiccup. The ceiling is the hard upper bound on how
// long the UI can show a loading state.
const (
	DefaultProfileTimeout = 3 * time.Second
	DefaultLoadingCeiling = 10 * time.Second
)

// AuthAPI is what the container needs from the auth service.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*supabase.Session, error)
	Signup(ctx context.Context, email, password, displayName string) (*supabase.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*supabase.Session, error)
	Logout(ctx context.Context, accessToken string) error
}

// ProfileFetcher resolves a full user profile for a session. Injected so the
// session→user mapping can be exercised without a live backend.
type ProfileFetcher interface {
	Get(ctx context.Context, token, userID string) (*model.User, error)
}

// UserFromSession is the single session→user mapping shared by bootstrap,
// login, signup and the auth-state listener paths.
//
// It races the profile fetch against budget; on timeout or failure it falls
// back to a user synthesized from the session's own id/email, so resolving a
// user never fails once a session exists.
func UserFromSession(ctx context.Context, sess *supabase.Session, profiles ProfileFetcher, budget time.Duration) (*model.User, error) {
	if sess == nil || sess.User == nil {
		return nil, fmt.Errorf("session: no user in session payload")
	}

	var user *model.User
	err := supabase.WithTimeout(ctx, budget, "resolve profile", func(ctx context.Context) error {
		var fetchErr error
		user, fetchErr = profiles.Get(ctx, sess.AccessToken, sess.User.ID)
		return fetchErr
	})
	if err == nil && user != nil {
		if user.Email == "" {
			user.Email = sess.User.Email
		}
		return user, nil
	}

	return synthesizeUser(sess.User), nil
}

// synthesizeUser builds a minimal user from the auth payload alone, used when
// the profile store is slow or down.
func synthesizeUser(u *supabase.User) *model.User {
	name := ""
	if v, ok := u.UserMetadata["display_name"].(string); ok {
		name = v
	}
	if name == "" {
		name, _, _ = strings.Cut(u.Email, "@")
	}
	return &model.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      name,
		CreatedAt: u.CreatedAt,
	}
}

// Manager is the auth/session state container. One instance lives for the
// application's lifetime; Close tears down subscriptions and makes any late
// callbacks no-ops.
type Manager struct {
	auth           AuthAPI
	profiles       ProfileFetcher
	logger         *slog.Logger
	profileTimeout time.Duration
	loadingCeiling time.Duration

	mu           sync.Mutex
	state        State
	user         *model.User
	session      *supabase.Session
	listeners    map[int]Listener
	nextListener int
	bootstrapped bool
	closed       bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithProfileTimeout overrides the profile-fetch race budget.
func WithProfileTimeout(d time.Duration) Option {
	return func(m *Manager) { m.profileTimeout = d }
}

// WithLoadingCeiling overrides the failsafe that force-clears loading.
func WithLoadingCeiling(d time.Duration) Option {
	return func(m *Manager) { m.loadingCeiling = d }
}

// NewManager creates a session container.
func NewManager(auth AuthAPI, profiles ProfileFetcher, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		auth:           auth,
		profiles:       profiles,
		logger:         logger,
		profileTimeout: DefaultProfileTimeout,
		loadingCeiling: DefaultLoadingCeiling,
		state:          StateUninitialized,
		listeners:      make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the signed-in user, or nil when anonymous.
func (m *Manager) CurrentUser() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Session returns the current session, or nil when anonymous.
func (m *Manager) Session() *supabase.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// AccessToken returns the current access token, or "" when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.AccessToken
}

// Subscribe registers a listener for auth-state changes and returns its
// unsubscribe function. Listeners registered after Close are never called.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	if !m.closed {
		m.listeners[id] = fn
	}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Bootstrap restores the session at application start. With an empty refresh
// token it settles immediately into the anonymous state; otherwise it
// exchanges the token for a session and resolves the user, falling back to a
// synthesized user rather than blocking on the profile store.
//
// Loading always clears: on success, on failure, or at the latest when the
// failsafe ceiling fires. Only the first call does anything.
func (m *Manager) Bootstrap(ctx context.Context, refreshToken string) {
	m.mu.Lock()
	if m.bootstrapped || m.closed {
		m.mu.Unlock()
		return
	}
	m.bootstrapped = true
	m.state = StateLoading
	m.mu.Unlock()

	// Failsafe: whatever happens below, the UI cannot be stuck loading
	// past the ceiling.
	failsafe := time.AfterFunc(m.loadingCeiling, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed || m.state != StateLoading {
			return
		}
		m.state = StateAnonymous
		m.logger.Warn("session bootstrap hit loading ceiling, forcing anonymous state")
	})
	defer failsafe.Stop()

	if refreshToken == "" {
		m.settle(nil, nil)
		return
	}

	sess, err := m.auth.Refresh(ctx, refreshToken)
	if err != nil {
		m.logger.Warn("session restore failed", slog.String("error", err.Error()))
		m.settle(nil, nil)
		return
	}

	user, err := UserFromSession(ctx, sess, m.profiles, m.profileTimeout)
	if err != nil {
		m.logger.Warn("session restore returned no user", slog.String("error", err.Error()))
		m.settle(nil, nil)
		return
	}

	m.settle(sess, user)
	m.notify(EventSignedIn, user)
}

// Login signs in and populates the container.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	sess, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := UserFromSession(ctx, sess, m.profiles, m.profileTimeout)
	if err != nil {
		return nil, err
	}

	m.settle(sess, user)
	m.notify(EventSignedIn, user)
	return user, nil
}

// Signup registers an account and, when the provider returns a live session,
// populates the container.
func (m *Manager) Signup(ctx context.Context, email, password, displayName string) (*model.User, error) {
	sess, err := m.auth.Signup(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}

	// Email-confirmation flows return no usable session yet; the account
	// exists but the user signs in after confirming.
	if sess.AccessToken == "" || sess.User == nil {
		return synthesizeUser(&supabase.User{Email: email}), nil
	}

	user, err := UserFromSession(ctx, sess, m.profiles, m.profileTimeout)
	if err != nil {
		return nil, err
	}

	m.settle(sess, user)
	m.notify(EventSignedIn, user)
	return user, nil
}

// Logout clears local state unconditionally. The backend sign-out is
// attempted first, but its failure only gets logged; the client must never
// appear stuck logged in because a network call failed.
func (m *Manager) Logout(ctx context.Context) {
	token := m.AccessToken()
	if token != "" {
		if err := m.auth.Logout(ctx, token); err != nil {
			m.logger.Warn("backend sign-out failed, clearing local session anyway",
				slog.String("error", err.Error()))
		}
	}

	m.settle(nil, nil)
	m.notify(EventSignedOut, nil)
}

// Close tears down the container. Subscribers are dropped and any late
// callbacks (failsafe timer, in-flight bootstrap) become no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.listeners = make(map[int]Listener)
	m.mu.Unlock()
}

// settle records the terminal state for the current transition.
func (m *Manager) settle(sess *supabase.Session, user *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.session = sess
	m.user = user
	if user != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateAnonymous
	}
}

// notify delivers an event to all subscribers outside the lock.
func (m *Manager) notify(event Event, user *model.User) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(event, user)
	}
}
