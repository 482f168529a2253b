// ABOUTME: Wire types exchanged with the studio backend
// ABOUTME: Profiles, projects, materials, tutorials and auth payloads

package client

import (
	"time"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
)

// HealthResponse represents the /api/v1/health endpoint response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Projects  int    `json:"projects"`
	Tutorials int    `json:"tutorials"`
	Blobs     int    `json:"blobs"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

// Profile is a user's public profile.
type Profile struct {
	Name string `json:"name" validate:"required,max=80"`
	Bio  string `json:"bio" validate:"max=500"`
}

// Material is one line of a project's materials list.
type Material struct {
	Name     string  `json:"name" validate:"required"`
	Unit     string  `json:"unit" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

// Project is a published crochet project.
type Project struct {
	Title                string            `json:"title"`
	Creator              string            `json:"creator"`
	Description          string            `json:"description"`
	Instructions         string            `json:"instructions"`
	Materials            []Material        `json:"materials"`
	Images               []*blob.Reference `json:"images"`
	CompletionPercentage int               `json:"completion_percentage"`
	TimeSpentMinutes     int               `json:"time_spent_minutes"`
}

// NewProject is the payload for addProject.
type NewProject struct {
	Title        string            `json:"title" validate:"required,max=120"`
	Description  string            `json:"description" validate:"required"`
	Instructions string            `json:"instructions"`
	Images       []*blob.Reference `json:"images" validate:"min=1,max=5"`
	Materials    []Material        `json:"materials" validate:"dive"`
}

// ProjectUpdate is the payload for updateProject.
type ProjectUpdate struct {
	Title                string            `json:"title" validate:"required"`
	Images               []*blob.Reference `json:"images" validate:"max=5"`
	CompletionPercentage int               `json:"completion_percentage" validate:"gte=0,lte=100"`
	TimeSpentMinutes     int               `json:"time_spent_minutes" validate:"gte=0"`
}

// Difficulty levels accepted for tutorials.
const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// Tutorial is a step-by-step guide managed by admins.
type Tutorial struct {
	Title       string   `json:"title" validate:"required,max=120"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty" validate:"oneof=Beginner Intermediate Advanced"`
	Steps       []string `json:"steps" validate:"min=1,dive,required"`
	Materials   []string `json:"materials" validate:"dive,required"`
}

// WhoAmI is the handshake response for an authenticated connection.
type WhoAmI struct {
	Principal string    `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
}

type challengeRequest struct {
	PublicKey string `json:"public_key"`
}

type challengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	Nonce       string    `json:"nonce"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type loginRequest struct {
	PublicKey   string `json:"public_key"`
	ChallengeID string `json:"challenge_id"`
	Signature   string `json:"signature"`
}

type loginResponse struct {
	Principal string    `json:"principal"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type adminResponse struct {
	Admin bool `json:"admin"`
}
