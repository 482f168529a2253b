// ABOUTME: Navigation entries available to the active identity
// ABOUTME: The admin entry requires a resolved admin role for the current identity

package studio

import (
	"context"

	"github.com/caffeinepub/crocheting-app/cli/internal/role"
)

// Page is a top-level destination.
type Page int

const (
	PageHome Page = iota
	PageGallery
	PageTutorials
	PageMyProjects
	PagePublish
	PageTrack
	PageAdmin
)

func (p Page) String() string {
	switch p {
	case PageHome:
		return "Home"
	case PageGallery:
		return "Gallery"
	case PageTutorials:
		return "Tutorials"
	case PageMyProjects:
		return "My Projects"
	case PagePublish:
		return "Publish"
	case PageTrack:
		return "Track"
	case PageAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}

// NavEntries lists the pages the active identity may open, in menu order.
func (s *Studio) NavEntries() []Page {
	pages := []Page{PageHome, PageGallery, PageTutorials}
	id := s.session.Identity()
	if id == nil {
		return pages
	}
	pages = append(pages, PageMyProjects, PagePublish, PageTrack)
	if s.roles.Allowed(id) {
		pages = append(pages, PageAdmin)
	}
	return pages
}

// ShowAdminEntry reports whether privileged affordances may be shown now.
func (s *Studio) ShowAdminEntry() bool {
	return s.roles.Allowed(s.session.Identity())
}

// Role returns the current role flag without fetching.
func (s *Studio) Role() role.Flag {
	return s.roles.Flag(s.session.Identity())
}

// LoadRole starts role resolution in the background.
func (s *Studio) LoadRole() role.Flag {
	return s.roles.Load(s.session.Identity())
}

// ResolveRole blocks until the active identity's role is known.
func (s *Studio) ResolveRole(ctx context.Context) (role.Flag, error) {
	return s.roles.Resolve(ctx, s.session.Identity())
}
