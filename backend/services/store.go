// ABOUTME: In-memory store for profiles, projects, tutorials and admin roles
// ABOUTME: Projects are keyed by creator and title; tutorials by title

package services

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/caffeinepub/crocheting-app/backend/models"
)

var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a record whose key is taken.
	ErrConflict = errors.New("already exists")
)

type projectKey struct {
	creator string
	title   string
}

// Store holds all studio records in memory.
type Store struct {
	mu        sync.RWMutex
	profiles  map[string]models.Profile
	projects  map[projectKey]models.Project
	tutorials map[string]models.Tutorial
	admins    map[string]bool
	bootstrap bool
	now       func() time.Time
}

// NewStore seeds the admin set. With bootstrap set, the first principal
// passed to ClaimAdmin becomes admin when no admin exists yet.
func NewStore(admins []string, bootstrap bool) *Store {
	s := &Store{
		profiles:  make(map[string]models.Profile),
		projects:  make(map[projectKey]models.Project),
		tutorials: make(map[string]models.Tutorial),
		admins:    make(map[string]bool),
		bootstrap: bootstrap,
		now:       time.Now,
	}
	for _, p := range admins {
		s.admins[p] = true
	}
	return s
}

// IsAdmin reports whether principal holds the admin role.
func (s *Store) IsAdmin(principal string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[principal]
}

// ClaimAdmin grants principal the admin role if bootstrap is enabled and
// nobody holds it yet. It reports whether the grant happened.
func (s *Store) ClaimAdmin(principal string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bootstrap || len(s.admins) > 0 {
		return false
	}
	s.admins[principal] = true
	return true
}

// Profile returns principal's profile, or nil when none was saved.
func (s *Store) Profile(principal string) *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[principal]
	if !ok {
		return nil
	}
	return &p
}

func (s *Store) SaveProfile(principal string, p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[principal] = p
}

// AddProject creates a project owned by creator.
func (s *Store) AddProject(creator string, np models.NewProject) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := projectKey{creator: creator, title: np.Title}
	if _, ok := s.projects[key]; ok {
		return models.Project{}, ErrConflict
	}
	now := s.now()
	p := models.Project{
		Title:        np.Title,
		Creator:      creator,
		Description:  np.Description,
		Instructions: np.Instructions,
		Materials:    slices.Clone(np.Materials),
		Images:       slices.Clone(np.Images),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Materials == nil {
		p.Materials = []models.Material{}
	}
	s.projects[key] = p
	return p, nil
}

// UpdateProject applies progress to creator's project and replaces its
// image set with the update's, which may be empty.
func (s *Store) UpdateProject(creator string, u models.ProjectUpdate) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := projectKey{creator: creator, title: u.Title}
	p, ok := s.projects[key]
	if !ok {
		return models.Project{}, ErrNotFound
	}
	p.Images = slices.Clone(u.Images)
	if p.Images == nil {
		p.Images = []models.Image{}
	}
	p.CompletionPercentage = u.CompletionPercentage
	p.TimeSpentMinutes = u.TimeSpentMinutes
	p.UpdatedAt = s.now()
	s.projects[key] = p
	return p, nil
}

// Projects lists projects, newest first. An empty creator lists everyone's.
func (s *Store) Projects(creator string) []models.Project {
	s.mu.RLock()
	out := make([]models.Project, 0, len(s.projects))
	for key, p := range s.projects {
		if creator == "" || key.creator == creator {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		if out[i].Creator != out[j].Creator {
			return out[i].Creator < out[j].Creator
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// Tutorials lists tutorials sorted by title.
func (s *Store) Tutorials() []models.Tutorial {
	s.mu.RLock()
	out := make([]models.Tutorial, 0, len(s.tutorials))
	for _, t := range s.tutorials {
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

func (s *Store) Tutorial(title string) (models.Tutorial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tutorials[title]
	if !ok {
		return models.Tutorial{}, ErrNotFound
	}
	return t, nil
}

func (s *Store) CreateTutorial(t models.Tutorial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tutorials[t.Title]; ok {
		return ErrConflict
	}
	s.tutorials[t.Title] = normalizeTutorial(t)
	return nil
}

func (s *Store) UpdateTutorial(t models.Tutorial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tutorials[t.Title]; !ok {
		return ErrNotFound
	}
	s.tutorials[t.Title] = normalizeTutorial(t)
	return nil
}

func (s *Store) DeleteTutorial(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tutorials[title]; !ok {
		return ErrNotFound
	}
	delete(s.tutorials, title)
	return nil
}

// Counts returns the number of projects and tutorials.
func (s *Store) Counts() (projects, tutorials int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects), len(s.tutorials)
}

func normalizeTutorial(t models.Tutorial) models.Tutorial {
	t.Steps = slices.Clone(t.Steps)
	t.Materials = slices.Clone(t.Materials)
	if t.Materials == nil {
		t.Materials = []string{}
	}
	return t
}
