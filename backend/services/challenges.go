// ABOUTME: Login challenges for key-based authentication
// ABOUTME: Issues single-use nonces and verifies ed25519 signatures over them

package services

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caffeinepub/crocheting-app/backend/cache"
	"github.com/caffeinepub/crocheting-app/backend/models"
	"github.com/caffeinepub/crocheting-app/internal/principal"
)

const nonceSize = 32

var (
	// ErrChallengeNotFound is returned for unknown, expired or already used challenges.
	ErrChallengeNotFound = errors.New("challenge not found or expired")
	// ErrBadSignature is returned when a signature does not verify.
	ErrBadSignature = errors.New("signature does not match challenge")
	// ErrBadPublicKey is returned for keys that are not ed25519 public keys.
	ErrBadPublicKey = errors.New("invalid public key")
)

type challenge struct {
	publicKey ed25519.PublicKey
	nonce     []byte
}

// ChallengeService hands out login nonces and checks their signatures.
type ChallengeService struct {
	pending *cache.Cache
	ttl     time.Duration
}

func NewChallengeService(ttl time.Duration, c *cache.Cache) *ChallengeService {
	return &ChallengeService{pending: c, ttl: ttl}
}

// Issue creates a nonce bound to the base64 public key.
func (s *ChallengeService) Issue(publicKey string) (*models.ChallengeResponse, error) {
	pub, err := decodePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	id := uuid.NewString()
	s.pending.SetWithTTL(challengeKey(id), challenge{publicKey: pub, nonce: nonce}, s.ttl)

	return &models.ChallengeResponse{
		ChallengeID: id,
		Nonce:       base64.StdEncoding.EncodeToString(nonce),
		ExpiresAt:   time.Now().Add(s.ttl).UTC(),
	}, nil
}

// Verify consumes the challenge and returns the principal of the key that
// signed it. A challenge is consumed even when verification fails.
func (s *ChallengeService) Verify(req models.LoginRequest) (string, error) {
	val, ok := s.pending.Take(challengeKey(req.ChallengeID))
	if !ok {
		return "", ErrChallengeNotFound
	}
	ch := val.(challenge)

	pub, err := decodePublicKey(req.PublicKey)
	if err != nil {
		return "", err
	}
	if !pub.Equal(ch.publicKey) {
		return "", ErrBadSignature
	}
	sig, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return "", ErrBadSignature
	}
	if !ed25519.Verify(pub, principal.ChallengeMessage(ch.nonce), sig) {
		return "", ErrBadSignature
	}
	return principal.FromPublicKey(pub), nil
}

func decodePublicKey(text string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrBadPublicKey
	}
	return ed25519.PublicKey(raw), nil
}

func challengeKey(id string) string {
	return "challenge:" + id
}
