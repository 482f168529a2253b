// ABOUTME: Derives an identity-bound backend connection from the identity session
// ABOUTME: Rebuilds on every identity change and never hands out a connection for a previous identity

package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
)

var (
	// ErrNotReady means there is no identity or the handshake has not completed.
	ErrNotReady = errors.New("connection not ready")
	// ErrClosed is returned by a connection whose identity is no longer active.
	ErrClosed = errors.New("connection closed: identity changed")
)

// DefaultHandshakeTimeout bounds a single handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// Dialer performs the handshake for id and returns a ready actor.
type Dialer func(ctx context.Context, id *identity.Identity) (client.Actor, error)

// HTTPDialer authenticates requests with the identity's bearer token and
// confirms the backend accepts it before the connection is handed out.
func HTTPDialer(baseURL string, blobs *blob.Fetcher) Dialer {
	return func(ctx context.Context, id *identity.Identity) (client.Actor, error) {
		source := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: id.Token,
			TokenType:   "Bearer",
			Expiry:      id.ExpiresAt,
		})
		hc := oauth2.NewClient(context.Background(), source)
		hc.Timeout = client.DefaultTimeout

		c := client.New(baseURL, client.WithHTTPClient(hc), client.WithBlobFetcher(blobs))
		who, err := c.Me(ctx)
		if err != nil {
			return nil, fmt.Errorf("handshake failed: %w", err)
		}
		if who.Principal != id.Principal {
			return nil, fmt.Errorf("handshake failed: backend reports principal %s, expected %s", who.Principal, id.Principal)
		}
		return c, nil
	}
}

// Connection is a live actor bound to one identity. Consumers must not keep
// it across identity changes; once closed, Actor returns ErrClosed.
type Connection struct {
	actor       client.Actor
	fingerprint string
	epoch       uint64
	closed      atomic.Bool
}

// Actor returns the backend actor unless the connection has been closed.
func (c *Connection) Actor() (client.Actor, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.actor, nil
}

// Fingerprint identifies the identity this connection acts for.
func (c *Connection) Fingerprint() string { return c.fingerprint }

// Closed reports whether the connection was torn down.
func (c *Connection) Closed() bool { return c.closed.Load() }

// Provider owns the current connection.
type Provider struct {
	mu       sync.Mutex
	dial     Dialer
	current  *identity.Identity
	conn     *Connection
	epoch    uint64
	fetching bool
	lastErr  error
	ready    chan struct{}

	group     singleflight.Group
	listeners []func(*Connection)
	stop      func()
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithHandshakeTimeout overrides DefaultHandshakeTimeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// WithLogger sets the provider logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// NewProvider binds a provider to session. The provider follows every identity
// change from then on.
func NewProvider(session *identity.Session, dial Dialer, opts ...Option) *Provider {
	p := &Provider{
		dial:    dial,
		timeout: DefaultHandshakeTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.stop = session.OnChange(p.rebind)
	if id := session.Identity(); id != nil {
		p.rebind(nil, id)
	}
	return p
}

// Close detaches the provider from the session and closes the connection.
func (p *Provider) Close() {
	p.stop()
	p.mu.Lock()
	if p.conn != nil {
		p.conn.closed.Store(true)
		p.conn = nil
	}
	if p.fetching {
		p.fetching = false
		close(p.ready)
	}
	p.epoch++
	p.current = nil
	p.mu.Unlock()
}

// OnChange registers fn to run whenever a handshake completes or the
// connection is torn down. fn receives nil when no connection is available.
// It may run inside a session transition and must not call back into the
// session.
func (p *Provider) OnChange(fn func(*Connection)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Provider) notify(conn *Connection) {
	p.mu.Lock()
	listeners := append([]func(*Connection){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(conn)
	}
}

// rebind runs synchronously inside the session transition, so the previous
// connection is closed before any listener sees the new identity.
func (p *Provider) rebind(prev, next *identity.Identity) {
	p.mu.Lock()
	if p.conn != nil {
		p.conn.closed.Store(true)
		p.conn = nil
	}
	if p.fetching {
		close(p.ready)
	}
	p.epoch++
	epoch := p.epoch
	p.current = next
	p.lastErr = nil
	p.fetching = next != nil
	if p.fetching {
		p.ready = make(chan struct{})
	}
	p.mu.Unlock()

	if next == nil {
		p.logger.Debug("Connection torn down", "previous", prev.Fingerprint())
		p.notify(nil)
		return
	}

	p.logger.Debug("Connection rebinding", "principal", next.Fingerprint(), "epoch", epoch)
	p.notify(nil)
	go p.handshake(epoch, next)
}

func (p *Provider) handshake(epoch uint64, id *identity.Identity) {
	v, err, shared := p.group.Do(strconv.FormatUint(epoch, 10), func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		return p.dial(ctx, id)
	})

	p.mu.Lock()
	if epoch != p.epoch || !p.fetching {
		p.mu.Unlock()
		p.logger.Debug("Discarding handshake for previous identity", "principal", id.Fingerprint(), "epoch", epoch)
		return
	}

	p.fetching = false
	close(p.ready)
	if err != nil {
		p.lastErr = err
		p.logger.Warn("Connection handshake failed", "principal", id.Fingerprint(), "error", err)
	} else {
		p.conn = &Connection{actor: v.(client.Actor), fingerprint: id.Fingerprint(), epoch: epoch}
		p.logger.Debug("Connection ready", "principal", id.Fingerprint(), "epoch", epoch, "shared", shared)
	}
	conn := p.conn
	p.mu.Unlock()

	p.notify(conn)
}

// Current returns the live connection. ok is false while anonymous or while
// the handshake is pending; that is "not ready", not "empty".
func (p *Provider) Current() (conn *Connection, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn, p.conn != nil
}

// IsFetching reports whether a handshake is in progress.
func (p *Provider) IsFetching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetching
}

// Err returns the last handshake failure for the current identity.
func (p *Provider) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Reconnect retries a failed handshake for the current identity.
func (p *Provider) Reconnect() {
	p.mu.Lock()
	if p.current == nil || p.conn != nil || p.fetching {
		p.mu.Unlock()
		return
	}
	p.fetching = true
	p.lastErr = nil
	p.ready = make(chan struct{})
	epoch, id := p.epoch, p.current
	p.mu.Unlock()

	go p.handshake(epoch, id)
}

// Wait blocks until a connection is ready, the handshake fails, or ctx ends.
func (p *Provider) Wait(ctx context.Context) (*Connection, error) {
	for {
		p.mu.Lock()
		if p.conn != nil {
			conn := p.conn
			p.mu.Unlock()
			return conn, nil
		}
		if !p.fetching {
			err := p.lastErr
			p.mu.Unlock()
			if err == nil {
				err = ErrNotReady
			}
			return nil, err
		}
		ready := p.ready
		p.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
