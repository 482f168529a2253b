// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Each route names its access level and rate limit class

package handlers

import "net/http"

// Access is who may call a route.
type Access int

const (
	Public Access = iota
	Authenticated
	AdminOnly
)

// RateClass picks the limiter a route counts against.
type RateClass int

const (
	RateDefault RateClass = iota
	RateAuth
	RateWrite
)

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL pattern (e.g., "/api/v1/tutorials/{title}")
	Handler http.HandlerFunc // Handler function
	Access  Access
	Rate    RateClass
}

// Pattern is the ServeMux pattern for the route.
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health
		{Method: http.MethodGet, Path: "/api/v1/health", Handler: h.Health},

		// Auth
		{Method: http.MethodPost, Path: "/api/v1/auth/challenge", Handler: h.Challenge, Rate: RateAuth},
		{Method: http.MethodPost, Path: "/api/v1/auth/login", Handler: h.Login, Rate: RateAuth},
		{Method: http.MethodPost, Path: "/api/v1/auth/logout", Handler: h.Logout, Access: Authenticated},
		{Method: http.MethodGet, Path: "/api/v1/auth/me", Handler: h.Me, Access: Authenticated},
		{Method: http.MethodGet, Path: "/api/v1/auth/admin", Handler: h.Admin, Access: Authenticated},

		// Profiles
		{Method: http.MethodGet, Path: "/api/v1/profile", Handler: h.GetCallerProfile, Access: Authenticated},
		{Method: http.MethodPut, Path: "/api/v1/profile", Handler: h.SaveCallerProfile, Access: Authenticated, Rate: RateWrite},
		{Method: http.MethodGet, Path: "/api/v1/users/{principal}/profile", Handler: h.GetUserProfile, Access: Authenticated},

		// Projects
		{Method: http.MethodGet, Path: "/api/v1/projects", Handler: h.GetAllProjects, Access: Authenticated},
		{Method: http.MethodPost, Path: "/api/v1/projects", Handler: h.AddProject, Access: Authenticated, Rate: RateWrite},
		{Method: http.MethodPut, Path: "/api/v1/projects", Handler: h.UpdateProject, Access: Authenticated, Rate: RateWrite},
		{Method: http.MethodGet, Path: "/api/v1/users/{principal}/projects", Handler: h.GetUserProjects, Access: Authenticated},

		// Tutorials
		{Method: http.MethodGet, Path: "/api/v1/tutorials", Handler: h.GetAllTutorials, Access: Authenticated},
		{Method: http.MethodGet, Path: "/api/v1/tutorials/{title}", Handler: h.GetTutorial, Access: Authenticated},
		{Method: http.MethodPost, Path: "/api/v1/tutorials", Handler: h.CreateTutorial, Access: AdminOnly, Rate: RateWrite},
		{Method: http.MethodPut, Path: "/api/v1/tutorials/{title}", Handler: h.UpdateTutorial, Access: AdminOnly, Rate: RateWrite},
		{Method: http.MethodDelete, Path: "/api/v1/tutorials/{title}", Handler: h.DeleteTutorial, Access: AdminOnly, Rate: RateWrite},

		// Blobs
		{Method: http.MethodPost, Path: "/api/v1/blobs", Handler: h.UploadBlob, Access: Authenticated, Rate: RateWrite},
		{Method: http.MethodGet, Path: "/api/v1/blobs/{hash}", Handler: h.GetBlob},
	}
}
