// ABOUTME: Studio mutations with client-side validation and cache invalidation
// ABOUTME: Each mutation records a pending/succeeded/failed state for display

package studio

import (
	"context"
	"strings"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/invalidation"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
)

// MutationPhase is the lifecycle of the latest run of a mutation.
type MutationPhase int

const (
	MutationIdle MutationPhase = iota
	MutationPending
	MutationSucceeded
	MutationFailed
)

func (p MutationPhase) String() string {
	switch p {
	case MutationPending:
		return "pending"
	case MutationSucceeded:
		return "succeeded"
	case MutationFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MutationState is what a view shows for a mutation.
type MutationState struct {
	Phase MutationPhase
	Err   error
}

// Message is the user-visible error text, empty unless the mutation failed.
func (m MutationState) Message() string {
	if m.Err == nil {
		return ""
	}
	return m.Err.Error()
}

// Mutation returns the state of the latest run of m.
func (s *Studio) Mutation(m invalidation.Mutation) MutationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations[m]
}

func (s *Studio) setState(m invalidation.Mutation, st MutationState) {
	s.mu.Lock()
	s.mutations[m] = st
	s.mu.Unlock()
}

// run calls the mutation on the active connection and applies its
// invalidation rules only on success. Backend failures become *BackendError.
func (s *Studio) run(ctx context.Context, m invalidation.Mutation, op, title string, call func(ctx context.Context, a client.Actor) error) error {
	actor, err := s.actor()
	if err != nil {
		s.setState(m, MutationState{Phase: MutationFailed, Err: err})
		return err
	}

	s.setState(m, MutationState{Phase: MutationPending})
	err = s.rules.Run(m, title, func() error {
		if err := call(ctx, actor); err != nil {
			return &BackendError{Op: op, Err: err}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Mutation failed", "mutation", string(m), "error", err)
		s.setState(m, MutationState{Phase: MutationFailed, Err: err})
		return err
	}
	s.setState(m, MutationState{Phase: MutationSucceeded})
	return nil
}

func (s *Studio) reject(m invalidation.Mutation, err error) error {
	err = invalid(err)
	s.setState(m, MutationState{Phase: MutationFailed, Err: err})
	return err
}

// SaveProfile stores the active identity's profile.
func (s *Studio) SaveProfile(ctx context.Context, profile client.Profile) error {
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Bio = strings.TrimSpace(profile.Bio)
	if err := s.validate.Struct(profile); err != nil {
		return s.reject(invalidation.SaveProfile, err)
	}
	return s.run(ctx, invalidation.SaveProfile, "save profile", "", func(ctx context.Context, a client.Actor) error {
		return a.SaveCallerUserProfile(ctx, profile)
	})
}

// Draft is the publish form before its images are uploaded.
type Draft struct {
	Title        string
	Description  string
	Instructions string
	Materials    []client.Material
}

func (d Draft) project(images []*blob.Reference) client.NewProject {
	return client.NewProject{
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		Instructions: strings.TrimSpace(d.Instructions),
		Images:       images,
		Materials:    d.Materials,
	}
}

// Publish uploads the staged images and adds the project. Validation runs
// before any upload; the project is only added when every image uploaded.
func (s *Studio) Publish(ctx context.Context, draft Draft, images *upload.Pipeline) error {
	placeholder := make([]*blob.Reference, images.Len())
	if err := s.validate.Struct(draft.project(placeholder)); err != nil {
		err = invalid(err)
		if ve, ok := err.(*ValidationError); ok && ve.Field == "images" && images.Len() == 0 {
			ve.Message = "at least one image is required"
		}
		return s.reject(invalidation.AddProject, err)
	}
	actor, err := s.actor()
	if err != nil {
		return s.reject(invalidation.AddProject, err)
	}

	s.setState(invalidation.AddProject, MutationState{Phase: MutationPending})
	err = images.Submit(ctx, actor, func(refs []*blob.Reference) error {
		return s.run(ctx, invalidation.AddProject, "publish project", "", func(ctx context.Context, a client.Actor) error {
			return a.AddProject(ctx, draft.project(refs))
		})
	})
	if err != nil {
		err = uploadFailure(err)
		s.setState(invalidation.AddProject, MutationState{Phase: MutationFailed, Err: err})
	}
	return err
}

// Progress is a tracking update for one of the active identity's projects.
type Progress struct {
	Title                string
	CompletionPercentage int
	TimeSpentMinutes     int
}

// Track records progress on a project. The staged images replace the
// project's image set.
func (s *Studio) Track(ctx context.Context, p Progress, images *upload.Pipeline) error {
	update := func(refs []*blob.Reference) client.ProjectUpdate {
		return client.ProjectUpdate{
			Title:                strings.TrimSpace(p.Title),
			Images:               refs,
			CompletionPercentage: p.CompletionPercentage,
			TimeSpentMinutes:     p.TimeSpentMinutes,
		}
	}
	if err := s.validate.Struct(update(make([]*blob.Reference, images.Len()))); err != nil {
		return s.reject(invalidation.UpdateProject, err)
	}
	actor, err := s.actor()
	if err != nil {
		return s.reject(invalidation.UpdateProject, err)
	}

	s.setState(invalidation.UpdateProject, MutationState{Phase: MutationPending})
	err = images.Submit(ctx, actor, func(refs []*blob.Reference) error {
		return s.run(ctx, invalidation.UpdateProject, "update project", "", func(ctx context.Context, a client.Actor) error {
			return a.UpdateProject(ctx, update(refs))
		})
	})
	if err != nil {
		err = uploadFailure(err)
		s.setState(invalidation.UpdateProject, MutationState{Phase: MutationFailed, Err: err})
	}
	return err
}

// NormalizeTutorial trims fields, drops blank steps and materials, and
// defaults the difficulty to Beginner.
func NormalizeTutorial(t client.Tutorial) client.Tutorial {
	out := client.Tutorial{
		Title:       strings.TrimSpace(t.Title),
		Description: strings.TrimSpace(t.Description),
		Difficulty:  strings.TrimSpace(t.Difficulty),
		Steps:       nonBlank(t.Steps),
		Materials:   nonBlank(t.Materials),
	}
	if out.Difficulty == "" {
		out.Difficulty = client.DifficultyBeginner
	}
	return out
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (s *Studio) checkTutorial(m invalidation.Mutation, t client.Tutorial) (client.Tutorial, error) {
	t = NormalizeTutorial(t)
	if err := s.validate.Struct(t); err != nil {
		return t, s.reject(m, err)
	}
	return t, nil
}

// CreateTutorial adds a tutorial. Only admins succeed.
func (s *Studio) CreateTutorial(ctx context.Context, t client.Tutorial) error {
	t, err := s.checkTutorial(invalidation.CreateTutorial, t)
	if err != nil {
		return err
	}
	return s.run(ctx, invalidation.CreateTutorial, "create tutorial", t.Title, func(ctx context.Context, a client.Actor) error {
		return a.CreateTutorial(ctx, t)
	})
}

// UpdateTutorial replaces the tutorial with t's title; the title itself
// cannot change.
func (s *Studio) UpdateTutorial(ctx context.Context, t client.Tutorial) error {
	t, err := s.checkTutorial(invalidation.UpdateTutorial, t)
	if err != nil {
		return err
	}
	return s.run(ctx, invalidation.UpdateTutorial, "update tutorial", t.Title, func(ctx context.Context, a client.Actor) error {
		return a.UpdateTutorial(ctx, t)
	})
}

// DeleteTutorial removes the tutorial with title.
func (s *Studio) DeleteTutorial(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return s.reject(invalidation.DeleteTutorial, &ValidationError{Field: "title", Message: "title is required"})
	}
	return s.run(ctx, invalidation.DeleteTutorial, "delete tutorial", title, func(ctx context.Context, a client.Actor) error {
		return a.DeleteTutorial(ctx, title)
	})
}
