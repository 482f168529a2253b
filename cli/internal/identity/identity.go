// ABOUTME: Cryptographic identity bound to a backend session token
// ABOUTME: Key pairs derive principals; identities carry the token that authorises requests

package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/caffeinepub/crocheting-app/internal/principal"
)

// KeyPair is the ed25519 key that identifies a user to the backend.
type KeyPair struct {
	private ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}
	return &KeyPair{private: priv}, nil
}

// KeyPairFromSeed rebuilds a key pair from its 32-byte seed.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length %d", len(seed))
	}
	return &KeyPair{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// Seed returns the seed for persistence.
func (k *KeyPair) Seed() []byte {
	return k.private.Seed()
}

// Public returns the public half of the key.
func (k *KeyPair) Public() ed25519.PublicKey {
	return k.private.Public().(ed25519.PublicKey)
}

// Principal returns the principal derived from the public key.
func (k *KeyPair) Principal() string {
	return principal.FromPublicKey(k.Public())
}

// Sign signs a login challenge nonce.
func (k *KeyPair) Sign(nonce []byte) []byte {
	return ed25519.Sign(k.private, principal.ChallengeMessage(nonce))
}

// Identity is an authenticated principal plus the session token the backend issued for it.
// A nil *Identity is the anonymous identity.
type Identity struct {
	Principal string
	PublicKey ed25519.PublicKey
	Token     string
	ExpiresAt time.Time
}

// Fingerprint is the stable identifier used in cache keys. Empty for anonymous.
func (id *Identity) Fingerprint() string {
	if id == nil {
		return ""
	}
	return id.Principal
}

// Expired reports whether the session token is past its expiry.
func (id *Identity) Expired(now time.Time) bool {
	if id == nil {
		return true
	}
	return !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt)
}

// Same reports whether two identities refer to the same principal.
func Same(a, b *Identity) bool {
	return a.Fingerprint() == b.Fingerprint()
}
