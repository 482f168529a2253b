// ABOUTME: Session tokens for authenticated principals
// ABOUTME: Issues and verifies HS256 JWTs; logout revokes a token id until it expires

package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/caffeinepub/crocheting-app/backend/cache"
	"github.com/caffeinepub/crocheting-app/backend/models"
)

const tokenIssuer = "crochet-studio"

var (
	// ErrInvalidToken is returned for tokens that fail to parse or verify.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrRevokedToken is returned for tokens that were logged out.
	ErrRevokedToken = errors.New("session has been logged out")
)

// SessionService manages bearer session tokens
type SessionService struct {
	secret  []byte
	ttl     time.Duration
	revoked *cache.Cache
	now     func() time.Time
}

// NewSessionService creates a session service signing with secret.
// Revoked token ids are kept in c.
func NewSessionService(secret string, ttl time.Duration, c *cache.Cache) *SessionService {
	return &SessionService{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: c,
		now:     time.Now,
	}
}

// Issue signs a token for principal.
func (s *SessionService) Issue(principal string) (string, *models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		Principal: principal,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   principal,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing session token: %w", err)
	}
	return token, session, nil
}

// Verify checks the signature, expiry and revocation of token.
func (s *SessionService) Verify(token string) (*models.Session, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}
	if _, ok := s.revoked.Get(revokedKey(claims.ID)); ok {
		return nil, ErrRevokedToken
	}
	return &models.Session{
		ID:        claims.ID,
		Principal: claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke rejects session's token in every later Verify.
func (s *SessionService) Revoke(session *models.Session) {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	s.revoked.SetWithTTL(revokedKey(session.ID), true, ttl)
}

// revokedKey returns the cache key for a revoked token id
func revokedKey(id string) string {
	return "revoked:" + id
}
