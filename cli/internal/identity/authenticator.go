// ABOUTME: Key-based interactive login against the backend challenge endpoints
// ABOUTME: Signs a server nonce, exchanges it for a session token, and persists the result

package identity

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrLoginDenied is returned when the user declines the login prompt.
var ErrLoginDenied = errors.New("login declined")

// Challenge is a single-use nonce issued by the backend.
type Challenge struct {
	ID        string
	Nonce     []byte
	ExpiresAt time.Time
}

// Grant is the backend's answer to a correctly signed challenge.
type Grant struct {
	Principal string
	Token     string
	ExpiresAt time.Time
}

// Challenger is the backend surface needed to log in and out.
type Challenger interface {
	Challenge(ctx context.Context, pub ed25519.PublicKey) (*Challenge, error)
	Exchange(ctx context.Context, pub ed25519.PublicKey, challengeID string, signature []byte) (*Grant, error)
	Revoke(ctx context.Context, token string) error
}

// Authenticator runs the interactive login flow for a Session.
type Authenticator interface {
	// Authenticate produces a new identity. It returns ErrAlreadyAuthenticated
	// when earlier session state is still present.
	Authenticate(ctx context.Context) (*Identity, error)
	// Resume returns the persisted identity, or nil if there is none.
	Resume(ctx context.Context) (*Identity, error)
	// Clear discards all session state, including any left over from earlier runs.
	Clear(ctx context.Context, id *Identity) error
}

// ApproveFunc asks the user to confirm logging in as principal.
type ApproveFunc func(ctx context.Context, principal string, newKey bool) (bool, error)

// KeyAuthenticator logs in with the key pair held in a FileStore.
type KeyAuthenticator struct {
	store   *FileStore
	backend Challenger
	approve ApproveFunc
	logger  *slog.Logger
	now     func() time.Time
}

var _ Authenticator = (*KeyAuthenticator)(nil)

// NewKeyAuthenticator creates an authenticator. approve may be nil.
func NewKeyAuthenticator(store *FileStore, backend Challenger, approve ApproveFunc, logger *slog.Logger) *KeyAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyAuthenticator{
		store:   store,
		backend: backend,
		approve: approve,
		logger:  logger,
		now:     time.Now,
	}
}

// Authenticate signs a fresh backend challenge with the stored key.
func (a *KeyAuthenticator) Authenticate(ctx context.Context) (*Identity, error) {
	key, created, err := a.store.LoadOrCreateKey()
	if err != nil {
		return nil, err
	}

	lingering, err := a.store.LoadSession()
	if err != nil {
		return nil, err
	}
	if lingering != nil && a.now().Before(lingering.ExpiresAt) {
		return nil, ErrAlreadyAuthenticated
	}

	principal := key.Principal()
	if a.approve != nil {
		ok, err := a.approve(ctx, principal, created)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrLoginDenied
		}
	}

	challenge, err := a.backend.Challenge(ctx, key.Public())
	if err != nil {
		return nil, fmt.Errorf("requesting login challenge: %w", err)
	}

	grant, err := a.backend.Exchange(ctx, key.Public(), challenge.ID, key.Sign(challenge.Nonce))
	if err != nil {
		return nil, fmt.Errorf("exchanging signed challenge: %w", err)
	}
	if grant.Principal != principal {
		return nil, fmt.Errorf("backend granted principal %s for key of %s", grant.Principal, principal)
	}

	if err := a.store.SaveSession(StoredSession{
		Principal: grant.Principal,
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
	}); err != nil {
		return nil, err
	}

	a.logger.Info("Logged in", "principal", principal, "new_key", created)
	return &Identity{
		Principal: grant.Principal,
		PublicKey: key.Public(),
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// Resume restores an unexpired persisted session.
func (a *KeyAuthenticator) Resume(ctx context.Context) (*Identity, error) {
	key, err := a.store.LoadKey()
	if errors.Is(err, ErrNoKey) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	stored, err := a.store.LoadSession()
	if err != nil || stored == nil {
		return nil, err
	}
	if !a.now().Before(stored.ExpiresAt) || stored.Principal != key.Principal() {
		a.logger.Debug("Ignoring unusable stored session", "principal", stored.Principal)
		return nil, nil
	}

	return &Identity{
		Principal: stored.Principal,
		PublicKey: key.Public(),
		Token:     stored.Token,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Clear revokes the token (best effort) and deletes the stored session.
func (a *KeyAuthenticator) Clear(ctx context.Context, id *Identity) error {
	token := ""
	if id != nil {
		token = id.Token
	} else if stored, err := a.store.LoadSession(); err == nil && stored != nil {
		token = stored.Token
	}

	if token != "" {
		if err := a.backend.Revoke(ctx, token); err != nil {
			a.logger.Warn("Failed to revoke session token", "error", err)
		}
	}
	return a.store.DeleteSession()
}
