// ABOUTME: In-memory backend used by the studio tests
// ABOUTME: Counts calls per operation and can fail or block selected operations

package studio

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
)

type fakeBackend struct {
	mu        sync.Mutex
	admins    map[string]bool
	profiles  map[string]client.Profile
	projects  []client.Project
	tutorials map[string]client.Tutorial
	calls     map[string]int
	fail      map[string]error
	gates     map[string]chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		admins:    map[string]bool{},
		profiles:  map[string]client.Profile{},
		tutorials: map[string]client.Tutorial{},
		calls:     map[string]int{},
		fail:      map[string]error{},
		gates:     map[string]chan struct{}{},
	}
}

func (b *fakeBackend) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// enter records a call and returns the configured failure for op.
func (b *fakeBackend) enter(op string) error {
	b.mu.Lock()
	b.calls[op]++
	gate := b.gates[op]
	err := b.fail[op]
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

type fakeActor struct {
	b         *fakeBackend
	principal string
}

func (a *fakeActor) Me(ctx context.Context) (*client.WhoAmI, error) {
	return &client.WhoAmI{Principal: a.principal}, nil
}

func (a *fakeActor) GetCallerUserProfile(ctx context.Context) (*client.Profile, error) {
	if err := a.b.enter("getCallerUserProfile"); err != nil {
		return nil, err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	p, ok := a.b.profiles[a.principal]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (a *fakeActor) SaveCallerUserProfile(ctx context.Context, p client.Profile) error {
	if err := a.b.enter("saveCallerUserProfile"); err != nil {
		return err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	a.b.profiles[a.principal] = p
	return nil
}

func (a *fakeActor) GetUserProfile(ctx context.Context, principal string) (*client.Profile, error) {
	if err := a.b.enter("getUserProfile"); err != nil {
		return nil, err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	p, ok := a.b.profiles[principal]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (a *fakeActor) IsCallerAdmin(ctx context.Context) (bool, error) {
	if err := a.b.enter("isCallerAdmin:" + a.principal); err != nil {
		return false, err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	return a.b.admins[a.principal], nil
}

func (a *fakeActor) GetAllProjects(ctx context.Context) ([]client.Project, error) {
	if err := a.b.enter("getAllProjects"); err != nil {
		return nil, err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	return append([]client.Project(nil), a.b.projects...), nil
}

func (a *fakeActor) GetProjects(ctx context.Context, principal string) ([]client.Project, error) {
	if err := a.b.enter("getProjects"); err != nil {
		return nil, err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	var out []client.Project
	for _, p := range a.b.projects {
		if p.Creator == principal {
			out = append(out, p)
		}
	}
	return out, nil
}

func (a *fakeActor) AddProject(ctx context.Context, np client.NewProject) error {
	if err := a.b.enter("addProject"); err != nil {
		return err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	a.b.projects = append(a.b.projects, client.Project{
		Title:       np.Title,
		Creator:     a.principal,
		Description: np.Description,
		Images:      np.Images,
		Materials:   np.Materials,
	})
	return nil
}

func (a *fakeActor) UpdateProject(ctx context.Context, u client.ProjectUpdate) error {
	if err := a.b.enter("updateProject"); err != nil {
		return err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	for i, p := range a.b.projects {
		if p.Creator == a.principal && p.Title == u.Title {
			a.b.projects[i].CompletionPercentage = u.CompletionPercentage
			a.b.projects[i].TimeSpentMinutes = u.TimeSpentMinutes
			a.b.projects[i].Images = u.Images
			return nil
		}
	}
	return &client.APIError{StatusCode: http.StatusNotFound, Message: "project not found"}
}

func (a *fakeActor) GetAllTutorials(ctx context.Context) ([]client.Tutorial, error) {
	if err := a.b.enter("getAllTutorials"); err != nil {
		return nil, err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	var out []client.Tutorial
	for _, t := range a.b.tutorials {
		out = append(out, t)
	}
	return out, nil
}

func (a *fakeActor) GetTutorial(ctx context.Context, title string) (*client.Tutorial, error) {
	if err := a.b.enter("getTutorial"); err != nil {
		return nil, err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	t, ok := a.b.tutorials[title]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (a *fakeActor) CreateTutorial(ctx context.Context, t client.Tutorial) error {
	if err := a.b.enter("createTutorial"); err != nil {
		return err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	if !a.b.admins[a.principal] {
		return &client.APIError{StatusCode: http.StatusForbidden, Message: "admin required"}
	}
	a.b.tutorials[t.Title] = t
	return nil
}

func (a *fakeActor) UpdateTutorial(ctx context.Context, t client.Tutorial) error {
	if err := a.b.enter("updateTutorial"); err != nil {
		return err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	a.b.tutorials[t.Title] = t
	return nil
}

func (a *fakeActor) DeleteTutorial(ctx context.Context, title string) error {
	if err := a.b.enter("deleteTutorial"); err != nil {
		return err
	}
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	delete(a.b.tutorials, title)
	return nil
}

func (a *fakeActor) UploadBlob(ctx context.Context, ref *blob.Reference) (*blob.Reference, error) {
	if err := a.b.enter("uploadBlob"); err != nil {
		return nil, err
	}
	ref.ReportProgress(ref.Size(), ref.Size())
	return blob.Hosted("https://blobs.test/"+ref.Hash(), ref.Hash(), ref.ContentType(), ref.Size()), nil
}

type scriptedAuth struct {
	mu  sync.Mutex
	ids []*identity.Identity
}

func (s *scriptedAuth) Authenticate(ctx context.Context) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return nil, errors.New("no identity scripted")
	}
	id := s.ids[0]
	s.ids = s.ids[1:]
	return id, nil
}

func (s *scriptedAuth) Resume(ctx context.Context) (*identity.Identity, error) { return nil, nil }

func (s *scriptedAuth) Clear(ctx context.Context, id *identity.Identity) error { return nil }
