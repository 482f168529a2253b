// ABOUTME: Auth request/response models for key-based login
// ABOUTME: A signed challenge is exchanged for a bearer session token

package models

import "time"

// ChallengeRequest asks for a login nonce for a public key.
type ChallengeRequest struct {
	PublicKey string `json:"public_key" validate:"required,base64"`
}

// ChallengeResponse carries the nonce to sign. Nonce is standard base64.
type ChallengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	Nonce       string    `json:"nonce"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginRequest returns the signed nonce. Key and signature are standard base64.
type LoginRequest struct {
	PublicKey   string `json:"public_key" validate:"required,base64"`
	ChallengeID string `json:"challenge_id" validate:"required"`
	Signature   string `json:"signature" validate:"required,base64"`
}

// LoginResponse carries the session token for the principal that signed in.
type LoginResponse struct {
	Principal string    `json:"principal"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WhoAmIResponse describes the session behind a bearer token.
type WhoAmIResponse struct {
	Principal string    `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminResponse reports whether the caller holds the admin role.
type AdminResponse struct {
	Admin bool `json:"admin"`
}

// Session is the verified state of a bearer token.
type Session struct {
	ID        string    `json:"id"` // token id, revoked on logout
	Principal string    `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
}
