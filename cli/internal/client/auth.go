// ABOUTME: Login handshake endpoints: challenge, signed exchange, logout and whoami
// ABOUTME: Implements identity.Challenger so the key authenticator can talk to the backend

package client

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
)

var _ identity.Challenger = (*Client)(nil)

// Challenge calls POST /api/v1/auth/challenge.
func (c *Client) Challenge(ctx context.Context, pub ed25519.PublicKey) (*identity.Challenge, error) {
	var resp challengeResponse
	req := challengeRequest{PublicKey: base64.StdEncoding.EncodeToString(pub)}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/challenge", req, &resp); err != nil {
		return nil, err
	}

	nonce, err := base64.StdEncoding.DecodeString(resp.Nonce)
	if err != nil {
		return nil, fmt.Errorf("invalid response from backend: bad nonce: %w", err)
	}
	return &identity.Challenge{ID: resp.ChallengeID, Nonce: nonce, ExpiresAt: resp.ExpiresAt}, nil
}

// Exchange calls POST /api/v1/auth/login with the signed challenge.
func (c *Client) Exchange(ctx context.Context, pub ed25519.PublicKey, challengeID string, signature []byte) (*identity.Grant, error) {
	req := loginRequest{
		PublicKey:   base64.StdEncoding.EncodeToString(pub),
		ChallengeID: challengeID,
		Signature:   base64.StdEncoding.EncodeToString(signature),
	}
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, err
	}

	subject, expiresAt, err := TokenClaims(resp.Token)
	if err != nil {
		return nil, err
	}
	if subject != resp.Principal {
		return nil, fmt.Errorf("invalid response from backend: token subject %s does not match principal %s", subject, resp.Principal)
	}
	if resp.ExpiresAt.IsZero() {
		resp.ExpiresAt = expiresAt
	}
	return &identity.Grant{Principal: resp.Principal, Token: resp.Token, ExpiresAt: resp.ExpiresAt}, nil
}

// Revoke calls POST /api/v1/auth/logout for token.
func (c *Client) Revoke(ctx context.Context, token string) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return c.doJSONWithHeader(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/logout", header, nil, nil)
}

// Me calls GET /api/v1/auth/me. It succeeds only on an authenticated client.
func (c *Client) Me(ctx context.Context) (*WhoAmI, error) {
	var who WhoAmI
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/me", nil, &who); err != nil {
		return nil, err
	}
	return &who, nil
}

// TokenClaims reads the subject and expiry of a session token without
// verifying its signature; only the backend holds the signing key.
func TokenClaims(token string) (string, time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", time.Time{}, fmt.Errorf("invalid session token: %w", err)
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return claims.Subject, expiresAt, nil
}
