// ABOUTME: Cached reads of profiles, projects and tutorials
// ABOUTME: Every identity-scoped key carries the identity fingerprint

package studio

import (
	"context"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/invalidation"
	"github.com/caffeinepub/crocheting-app/cli/internal/querycache"
)

type fetchFunc func(ctx context.Context, actor client.Actor) (any, error)

// query builds a read that is enabled only while a connection for the
// active identity exists and every required parameter is set.
func (s *Studio) query(key querycache.Key, fetch fetchFunc, required ...string) querycache.Query {
	q := querycache.Query{Key: key}
	for _, r := range required {
		if r == "" {
			return q
		}
	}
	conn, ok := s.conn()
	if !ok {
		return q
	}
	q.Enabled = true
	q.Fetch = func(ctx context.Context) (any, error) {
		actor, err := conn.Actor()
		if err != nil {
			return nil, err
		}
		return fetch(ctx, actor)
	}
	return q
}

// CallerProfileQuery reads the active identity's own profile.
func (s *Studio) CallerProfileQuery() querycache.Query {
	fp := s.session.Identity().Fingerprint()
	return s.query(querycache.NewKey(invalidation.CurrentUserProfile, fp), func(ctx context.Context, a client.Actor) (any, error) {
		return a.GetCallerUserProfile(ctx)
	}, fp)
}

// UserProfileQuery reads another user's profile.
func (s *Studio) UserProfileQuery(principal string) querycache.Query {
	return s.query(querycache.NewKey(invalidation.UserProfile, principal), func(ctx context.Context, a client.Actor) (any, error) {
		return a.GetUserProfile(ctx, principal)
	}, principal)
}

// AllProjectsQuery reads the public gallery.
func (s *Studio) AllProjectsQuery() querycache.Query {
	return s.query(querycache.NewKey(invalidation.AllProjects), func(ctx context.Context, a client.Actor) (any, error) {
		return a.GetAllProjects(ctx)
	})
}

// MyProjectsQuery reads the active identity's projects.
func (s *Studio) MyProjectsQuery() querycache.Query {
	id := s.session.Identity()
	fp := id.Fingerprint()
	return s.query(querycache.NewKey(invalidation.MyProjects, fp), func(ctx context.Context, a client.Actor) (any, error) {
		return a.GetProjects(ctx, id.Principal)
	}, fp)
}

// UserProjectsQuery reads the projects of principal.
func (s *Studio) UserProjectsQuery(principal string) querycache.Query {
	return s.query(querycache.NewKey(invalidation.UserProjects, principal), func(ctx context.Context, a client.Actor) (any, error) {
		return a.GetProjects(ctx, principal)
	}, principal)
}

// TutorialsQuery reads every tutorial.
func (s *Studio) TutorialsQuery() querycache.Query {
	return s.query(querycache.NewKey(invalidation.Tutorials), func(ctx context.Context, a client.Actor) (any, error) {
		return a.GetAllTutorials(ctx)
	})
}

// TutorialQuery reads one tutorial by title.
func (s *Studio) TutorialQuery(title string) querycache.Query {
	return s.query(querycache.NewKey(invalidation.Tutorial, title), func(ctx context.Context, a client.Actor) (any, error) {
		return a.GetTutorial(ctx, title)
	}, title)
}

// Load is the non-blocking read used by views.
func (s *Studio) Load(q querycache.Query) querycache.Result {
	return s.cache.Load(q)
}

func read[T any](ctx context.Context, s *Studio, q querycache.Query) (T, error) {
	var zero T
	res := s.cache.Read(ctx, q)
	if res.Status == querycache.StatusDisabled {
		return zero, ErrNotReady
	}
	if res.Err != nil {
		return zero, res.Err
	}
	v, _ := querycache.Value[T](res)
	return v, nil
}

// CallerProfile returns the active identity's profile, nil if none was saved.
func (s *Studio) CallerProfile(ctx context.Context) (*client.Profile, error) {
	return read[*client.Profile](ctx, s, s.CallerProfileQuery())
}

// UserProfile returns principal's profile, nil if none was saved.
func (s *Studio) UserProfile(ctx context.Context, principal string) (*client.Profile, error) {
	return read[*client.Profile](ctx, s, s.UserProfileQuery(principal))
}

// AllProjects returns every published project.
func (s *Studio) AllProjects(ctx context.Context) ([]client.Project, error) {
	return read[[]client.Project](ctx, s, s.AllProjectsQuery())
}

// MyProjects returns the active identity's projects.
func (s *Studio) MyProjects(ctx context.Context) ([]client.Project, error) {
	return read[[]client.Project](ctx, s, s.MyProjectsQuery())
}

// UserProjects returns principal's projects.
func (s *Studio) UserProjects(ctx context.Context, principal string) ([]client.Project, error) {
	return read[[]client.Project](ctx, s, s.UserProjectsQuery(principal))
}

// Tutorials returns every tutorial.
func (s *Studio) Tutorials(ctx context.Context) ([]client.Tutorial, error) {
	return read[[]client.Tutorial](ctx, s, s.TutorialsQuery())
}

// Tutorial returns one tutorial, nil if it does not exist.
func (s *Studio) Tutorial(ctx context.Context, title string) (*client.Tutorial, error) {
	return read[*client.Tutorial](ctx, s, s.TutorialQuery(title))
}

// NeedsProfileSetup reports whether the active identity should be asked to
// create a profile: signed in, profile read completed, and no profile saved.
func (s *Studio) NeedsProfileSetup(ctx context.Context) (bool, error) {
	profile, err := s.CallerProfile(ctx)
	if err != nil {
		return false, err
	}
	return profile == nil, nil
}
