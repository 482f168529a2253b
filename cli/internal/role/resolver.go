// ABOUTME: Resolves whether the active identity holds the admin role
// ABOUTME: Default-deny: anything but a fresh result for the same identity reads as unknown

package role

import (
	"context"
	"log/slog"

	"github.com/caffeinepub/crocheting-app/cli/internal/connection"
	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
	"github.com/caffeinepub/crocheting-app/cli/internal/invalidation"
	"github.com/caffeinepub/crocheting-app/cli/internal/querycache"
)

// Flag is the tri-state admin role.
type Flag int

const (
	FlagUnknown Flag = iota
	FlagGranted
	FlagDenied
)

func (f Flag) String() string {
	switch f {
	case FlagGranted:
		return "granted"
	case FlagDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Connections is the part of the connection provider the resolver needs.
type Connections interface {
	Current() (*connection.Connection, bool)
}

// Key is the cache key holding the role of the identity with fingerprint fp.
func Key(fp string) querycache.Key {
	return querycache.NewKey(invalidation.IsAdmin, fp)
}

// Resolver reads the role through the shared query cache.
type Resolver struct {
	cache  *querycache.Cache
	conns  Connections
	logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cache *querycache.Cache, conns Connections, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{cache: cache, conns: conns, logger: logger}
}

func (r *Resolver) query(id *identity.Identity) querycache.Query {
	fp := id.Fingerprint()
	q := querycache.Query{Key: Key(fp)}
	if id == nil {
		return q
	}
	conn, ok := r.conns.Current()
	if !ok || conn.Fingerprint() != fp {
		return q
	}
	q.Enabled = true
	q.Fetch = func(ctx context.Context) (any, error) {
		actor, err := conn.Actor()
		if err != nil {
			return nil, err
		}
		return actor.IsCallerAdmin(ctx)
	}
	return q
}

func flagOf(res querycache.Result) Flag {
	if res.Status != querycache.StatusSuccess || res.Stale {
		return FlagUnknown
	}
	admin, ok := querycache.Value[bool](res)
	if !ok {
		return FlagUnknown
	}
	if admin {
		return FlagGranted
	}
	return FlagDenied
}

// Resolve blocks until the role of id is known or ctx ends. It returns
// FlagUnknown with a nil error while there is no connection for id.
func (r *Resolver) Resolve(ctx context.Context, id *identity.Identity) (Flag, error) {
	q := r.query(id)
	if !q.Enabled {
		return FlagUnknown, nil
	}
	res := r.cache.Read(ctx, q)
	if res.Err != nil {
		r.logger.Debug("Role resolution failed", "principal", id.Fingerprint(), "error", res.Err)
		return FlagUnknown, res.Err
	}
	return flagOf(res), nil
}

// Load starts resolution in the background and returns the current flag.
func (r *Resolver) Load(id *identity.Identity) Flag {
	q := r.query(id)
	if !q.Enabled {
		return FlagUnknown
	}
	return flagOf(r.cache.Load(q))
}

// Flag returns the current flag for id without fetching.
func (r *Resolver) Flag(id *identity.Identity) Flag {
	if id == nil {
		return FlagUnknown
	}
	return flagOf(r.cache.Peek(Key(id.Fingerprint())))
}

// Allowed reports whether privileged affordances may be shown to id.
func (r *Resolver) Allowed(id *identity.Identity) bool {
	return id != nil && r.Flag(id) == FlagGranted
}
