// ABOUTME: Identity-scoped backend operations used by the studio
// ABOUTME: Profiles, projects and tutorials, behind the Actor interface

package client

import (
	"context"
	"net/http"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
)

// Actor is the set of backend operations available over an authenticated connection.
type Actor interface {
	Me(ctx context.Context) (*WhoAmI, error)

	GetCallerUserProfile(ctx context.Context) (*Profile, error)
	SaveCallerUserProfile(ctx context.Context, profile Profile) error
	GetUserProfile(ctx context.Context, principal string) (*Profile, error)
	IsCallerAdmin(ctx context.Context) (bool, error)

	GetAllProjects(ctx context.Context) ([]Project, error)
	GetProjects(ctx context.Context, principal string) ([]Project, error)
	AddProject(ctx context.Context, project NewProject) error
	UpdateProject(ctx context.Context, update ProjectUpdate) error

	GetAllTutorials(ctx context.Context) ([]Tutorial, error)
	GetTutorial(ctx context.Context, title string) (*Tutorial, error)
	CreateTutorial(ctx context.Context, tutorial Tutorial) error
	UpdateTutorial(ctx context.Context, tutorial Tutorial) error
	DeleteTutorial(ctx context.Context, title string) error

	UploadBlob(ctx context.Context, ref *blob.Reference) (*blob.Reference, error)
}

var _ Actor = (*Client)(nil)

// GetCallerUserProfile calls GET /api/v1/profile. A nil profile means none has been saved.
func (c *Client) GetCallerUserProfile(ctx context.Context) (*Profile, error) {
	var profile *Profile
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/profile", nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SaveCallerUserProfile calls PUT /api/v1/profile.
func (c *Client) SaveCallerUserProfile(ctx context.Context, profile Profile) error {
	return c.doJSON(ctx, http.MethodPut, "/api/v1/profile", profile, nil)
}

// GetUserProfile calls GET /api/v1/users/{principal}/profile.
func (c *Client) GetUserProfile(ctx context.Context, principal string) (*Profile, error) {
	var profile *Profile
	target := c.endpoint("/api/v1/users", principal) + "/profile"
	if err := c.doJSONWithHeader(ctx, http.MethodGet, target, nil, nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// IsCallerAdmin calls GET /api/v1/auth/admin.
func (c *Client) IsCallerAdmin(ctx context.Context) (bool, error) {
	var resp adminResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/admin", nil, &resp); err != nil {
		return false, err
	}
	return resp.Admin, nil
}

// GetAllProjects calls GET /api/v1/projects.
func (c *Client) GetAllProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/projects", nil, &projects); err != nil {
		return nil, err
	}
	return c.withFetchers(projects), nil
}

// GetProjects calls GET /api/v1/users/{principal}/projects.
func (c *Client) GetProjects(ctx context.Context, principal string) ([]Project, error) {
	var projects []Project
	target := c.endpoint("/api/v1/users", principal) + "/projects"
	if err := c.doJSONWithHeader(ctx, http.MethodGet, target, nil, nil, &projects); err != nil {
		return nil, err
	}
	return c.withFetchers(projects), nil
}

// AddProject calls POST /api/v1/projects.
func (c *Client) AddProject(ctx context.Context, project NewProject) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/projects", project, nil)
}

// UpdateProject calls PUT /api/v1/projects.
func (c *Client) UpdateProject(ctx context.Context, update ProjectUpdate) error {
	return c.doJSON(ctx, http.MethodPut, "/api/v1/projects", update, nil)
}

// GetAllTutorials calls GET /api/v1/tutorials.
func (c *Client) GetAllTutorials(ctx context.Context) ([]Tutorial, error) {
	var tutorials []Tutorial
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/tutorials", nil, &tutorials); err != nil {
		return nil, err
	}
	return tutorials, nil
}

// GetTutorial calls GET /api/v1/tutorials/{title}. A missing tutorial is (nil, nil).
func (c *Client) GetTutorial(ctx context.Context, title string) (*Tutorial, error) {
	var tutorial Tutorial
	err := c.doJSONWithHeader(ctx, http.MethodGet, c.endpoint("/api/v1/tutorials", title), nil, nil, &tutorial)
	if StatusOf(err) == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tutorial, nil
}

// CreateTutorial calls POST /api/v1/tutorials.
func (c *Client) CreateTutorial(ctx context.Context, tutorial Tutorial) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/tutorials", tutorial, nil)
}

// UpdateTutorial calls PUT /api/v1/tutorials/{title}.
func (c *Client) UpdateTutorial(ctx context.Context, tutorial Tutorial) error {
	return c.doJSONWithHeader(ctx, http.MethodPut, c.endpoint("/api/v1/tutorials", tutorial.Title), nil, tutorial, nil)
}

// DeleteTutorial calls DELETE /api/v1/tutorials/{title}.
func (c *Client) DeleteTutorial(ctx context.Context, title string) error {
	return c.doJSONWithHeader(ctx, http.MethodDelete, c.endpoint("/api/v1/tutorials", title), nil, nil, nil)
}

func (c *Client) withFetchers(projects []Project) []Project {
	for i := range projects {
		c.attach(projects[i].Images)
	}
	return projects
}
