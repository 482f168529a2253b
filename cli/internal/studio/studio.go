// ABOUTME: Studio ties the identity session, connection, query cache and role together
// ABOUTME: It is the single entry point the CLI commands and the TUI call into

package studio

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/connection"
	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
	"github.com/caffeinepub/crocheting-app/cli/internal/invalidation"
	"github.com/caffeinepub/crocheting-app/cli/internal/querycache"
	"github.com/caffeinepub/crocheting-app/cli/internal/role"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
	"github.com/caffeinepub/crocheting-app/internal/validate"
)

// Studio is the client-side view of the crocheting studio.
type Studio struct {
	session  *identity.Session
	conns    *connection.Provider
	cache    *querycache.Cache
	rules    *invalidation.Engine
	roles    *role.Resolver
	validate *validate.Validator
	logger   *slog.Logger

	uploadLimit       int
	uploadConcurrency int

	mu        sync.Mutex
	mutations map[invalidation.Mutation]MutationState
	stop      func()
}

// Option configures a Studio.
type Option func(*Studio)

// WithLogger sets the logger for the studio and the rules engine.
func WithLogger(l *slog.Logger) Option {
	return func(s *Studio) {
		s.logger = l
	}
}

// WithUploadLimits sets the per-form image cap and the transfer concurrency.
func WithUploadLimits(limit, concurrency int) Option {
	return func(s *Studio) {
		s.uploadLimit = limit
		s.uploadConcurrency = concurrency
	}
}

// New wires a studio. conns must already be bound to session so the old
// connection is closed before the studio's identity-change handling runs.
func New(session *identity.Session, conns *connection.Provider, cache *querycache.Cache, opts ...Option) *Studio {
	s := &Studio{
		session:           session,
		conns:             conns,
		cache:             cache,
		validate:          validate.New(),
		logger:            slog.Default(),
		uploadLimit:       upload.DefaultLimit,
		uploadConcurrency: upload.DefaultConcurrency,
		mutations:         make(map[invalidation.Mutation]MutationState),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rules = invalidation.New(cache, s.logger)
	s.roles = role.NewResolver(cache, conns, s.logger)
	s.stop = session.OnChange(s.identityChanged)
	return s
}

// identityChanged runs inside the session transition, before any read can
// resolve against the previous identity's connection.
func (s *Studio) identityChanged(prev, next *identity.Identity) {
	s.rules.Apply(invalidation.IdentityChange, "")
	if next == nil {
		s.cache.Clear()
	}
	s.mu.Lock()
	clear(s.mutations)
	s.mu.Unlock()
	s.logger.Debug("Identity changed", "previous", prev.Fingerprint(), "current", next.Fingerprint())
}

// Close detaches the studio from the session.
func (s *Studio) Close() {
	s.stop()
}

// Session returns the identity session.
func (s *Studio) Session() *identity.Session { return s.session }

// Connections returns the connection provider.
func (s *Studio) Connections() *connection.Provider { return s.conns }

// Cache returns the shared query cache.
func (s *Studio) Cache() *querycache.Cache { return s.cache }

// Identity returns the active identity, nil when anonymous.
func (s *Studio) Identity() *identity.Identity { return s.session.Identity() }

// Ready blocks until the connection for the active identity is usable.
func (s *Studio) Ready(ctx context.Context) error {
	if s.session.Identity() == nil {
		return ErrNotReady
	}
	if _, err := s.conns.Wait(ctx); err != nil {
		if errors.Is(err, connection.ErrNotReady) {
			return ErrNotReady
		}
		return err
	}
	return nil
}

// NewPipeline creates an upload pipeline for one form.
func (s *Studio) NewPipeline(opts ...upload.Option) *upload.Pipeline {
	base := []upload.Option{
		upload.WithLimit(s.uploadLimit),
		upload.WithConcurrency(s.uploadConcurrency),
		upload.WithLogger(s.logger),
	}
	return upload.New(append(base, opts...)...)
}

// conn returns the live connection when it belongs to the active identity.
func (s *Studio) conn() (*connection.Connection, bool) {
	id := s.session.Identity()
	conn, ok := s.conns.Current()
	if id == nil || !ok || conn.Fingerprint() != id.Fingerprint() {
		return nil, false
	}
	return conn, true
}

func (s *Studio) actor() (client.Actor, error) {
	conn, ok := s.conn()
	if !ok {
		return nil, ErrNotReady
	}
	actor, err := conn.Actor()
	if err != nil {
		return nil, ErrNotReady
	}
	return actor, nil
}
