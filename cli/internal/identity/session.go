// ABOUTME: Identity session state machine: anonymous, authenticating, authenticated
// ABOUTME: Owns the single active identity and notifies listeners synchronously on change

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrAlreadyAuthenticated is returned by Login while a session exists.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrLoginInProgress is returned by Login while another login is running.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrLoginCanceled is returned when the session was cleared mid-login.
	ErrLoginCanceled = errors.New("login canceled")
)

// DefaultRetryDelay is the pause between clearing a lingering session and retrying login.
const DefaultRetryDelay = 300 * time.Millisecond

// Status is the session lifecycle state.
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticating
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Listener observes identity transitions. prev or next is nil for anonymous.
type Listener func(prev, next *Identity)

// Session holds the process-wide active identity.
type Session struct {
	mu        sync.Mutex
	status    Status
	current   *Identity
	attempt   uint64
	listeners map[int]Listener
	order     []int
	nextID    int

	auth       Authenticator
	retryDelay time.Duration
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRetryDelay overrides the pause used by LoginWithRecovery.
func WithRetryDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		s.retryDelay = d
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates an anonymous session.
func NewSession(auth Authenticator, opts ...SessionOption) *Session {
	s := &Session{
		listeners:  make(map[int]Listener),
		auth:       auth,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Identity returns the active identity, or nil when anonymous or authenticating.
func (s *Session) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnChange registers a listener and returns a function that removes it.
// Listeners run in registration order with the session locked, before the
// transition becomes visible to other callers. They must not call back into
// the Session.
func (s *Session) OnChange(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) notifyLocked(prev, next *Identity) {
	for _, id := range s.order {
		if fn, ok := s.listeners[id]; ok {
			fn(prev, next)
		}
	}
}

// Restore adopts a persisted identity when the session is anonymous.
func (s *Session) Restore(ctx context.Context) (*Identity, error) {
	if s.Status() != StatusAnonymous {
		return s.Identity(), nil
	}

	id, err := s.auth.Resume(ctx)
	if err != nil || id == nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAnonymous {
		return s.current, nil
	}
	s.status = StatusAuthenticated
	s.current = id
	s.notifyLocked(nil, id)
	s.logger.Info("Restored session", "principal", id.Principal)
	return id, nil
}

// Login runs the authenticator. It fails with ErrAlreadyAuthenticated when a
// session exists and ErrLoginInProgress while another login is running.
func (s *Session) Login(ctx context.Context) (*Identity, error) {
	s.mu.Lock()
	switch s.status {
	case StatusAuthenticated:
		s.mu.Unlock()
		return nil, ErrAlreadyAuthenticated
	case StatusAuthenticating:
		s.mu.Unlock()
		return nil, ErrLoginInProgress
	}
	s.status = StatusAuthenticating
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	id, err := s.auth.Authenticate(ctx)

	s.mu.Lock()
	if s.attempt != attempt {
		s.mu.Unlock()
		if id != nil {
			if cerr := s.auth.Clear(ctx, id); cerr != nil {
				s.logger.Warn("Failed to discard canceled login", "error", cerr)
			}
		}
		return nil, ErrLoginCanceled
	}
	if err != nil {
		s.status = StatusAnonymous
		s.mu.Unlock()
		return nil, err
	}

	s.status = StatusAuthenticated
	s.current = id
	s.notifyLocked(nil, id)
	s.mu.Unlock()

	s.logger.Info("Identity changed", "principal", id.Principal)
	return id, nil
}

// LoginWithRecovery logs in, and when earlier session state is still present
// clears it, waits the retry delay, and tries once more.
func (s *Session) LoginWithRecovery(ctx context.Context) (*Identity, error) {
	id, err := s.Login(ctx)
	if !errors.Is(err, ErrAlreadyAuthenticated) {
		return id, err
	}

	s.logger.Info("Session already active, clearing before retry", "delay", s.retryDelay)
	if err := s.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clearing previous session: %w", err)
	}
	if err := s.sleep(ctx, s.retryDelay); err != nil {
		return nil, err
	}
	return s.Login(ctx)
}

// Clear tears down the identity unconditionally. It is safe to call repeatedly.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	prev := s.current
	s.attempt++
	s.status = StatusAnonymous
	s.current = nil
	if prev != nil {
		s.notifyLocked(prev, nil)
	}
	s.mu.Unlock()

	if prev != nil {
		s.logger.Info("Identity cleared", "principal", prev.Principal)
	}
	return s.auth.Clear(ctx, prev)
}

// Logout is Clear.
func (s *Session) Logout(ctx context.Context) error {
	return s.Clear(ctx)
}
