// ABOUTME: Studio records and API response models
// ABOUTME: JSON shapes shared with the crochet CLI; validate tags enforce form rules

package models

import "time"

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

// Image points at a picture. Hash is set for content stored in the blob
// store and empty for external URLs.
type Image struct {
	URL         string `json:"url" validate:"required,url"`
	Hash        string `json:"hash,omitempty" validate:"omitempty,len=64,hexadecimal"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Project is a published crochet project. Projects are keyed by creator and title.
type Project struct {
	Title                string     `json:"title"`
	Creator              string     `json:"creator"`
	Description          string     `json:"description"`
	Instructions         string     `json:"instructions"`
	Materials            []Material `json:"materials"`
	Images               []Image    `json:"images"`
	CompletionPercentage int        `json:"completion_percentage"`
	TimeSpentMinutes     int        `json:"time_spent_minutes"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewProject is the body of POST /api/v1/projects.
type NewProject struct {
	Title        string     `json:"title" validate:"required,max=120"`
	Description  string     `json:"description" validate:"required"`
	Instructions string     `json:"instructions"`
	Images       []Image    `json:"images" validate:"min=1,max=5,dive"`
	Materials    []Material `json:"materials" validate:"dive"`
}

// ProjectUpdate is the body of PUT /api/v1/projects.
type ProjectUpdate struct {
	Title                string  `json:"title" validate:"required"`
	Images               []Image `json:"images" validate:"max=5,dive"`
	CompletionPercentage int     `json:"completion_percentage" validate:"gte=0,lte=100"`
	TimeSpentMinutes     int     `json:"time_spent_minutes" validate:"gte=0"`
}

// Tutorial is a step-by-step guide managed by admins. Tutorials are keyed by title.
type Tutorial struct {
	Title       string   `json:"title" validate:"required,max=120"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty" validate:"oneof=Beginner Intermediate Advanced"`
	Steps       []string `json:"steps" validate:"min=1,dive,required"`
	Materials   []string `json:"materials" validate:"dive,required"`
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Hash        string `json:"hash"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Projects  int    `json:"projects"`
	Tutorials int    `json:"tutorials"`
	Blobs     int    `json:"blobs"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}
