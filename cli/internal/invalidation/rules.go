// ABOUTME: Fixed mapping from mutations and identity changes to cache key prefixes
// ABOUTME: Applied only after a mutation succeeds; failures leave the cache untouched

package invalidation

import (
	"log/slog"

	"github.com/caffeinepub/crocheting-app/cli/internal/querycache"
)

// Query names used as the first element of every cache key.
const (
	CurrentUserProfile = "currentUserProfile"
	UserProfile        = "userProfile"
	AllProjects        = "allProjects"
	MyProjects         = "myProjects"
	UserProjects       = "userProjects"
	Tutorials          = "tutorials"
	Tutorial           = "tutorial"
	IsAdmin            = "isAdmin"
)

// Mutation names an operation that changes backend state.
type Mutation string

const (
	SaveProfile    Mutation = "saveProfile"
	AddProject     Mutation = "addProject"
	UpdateProject  Mutation = "updateProject"
	CreateTutorial Mutation = "createTutorial"
	UpdateTutorial Mutation = "updateTutorial"
	DeleteTutorial Mutation = "deleteTutorial"
	// IdentityChange covers login and logout.
	IdentityChange Mutation = "identityChange"
)

var table = map[Mutation][]string{
	SaveProfile:    {CurrentUserProfile},
	AddProject:     {MyProjects, AllProjects},
	UpdateProject:  {MyProjects, AllProjects},
	CreateTutorial: {Tutorials},
	UpdateTutorial: {Tutorials},
	DeleteTutorial: {Tutorials},
	IdentityChange: {IsAdmin, CurrentUserProfile, MyProjects},
}

// titled mutations also invalidate the single-tutorial entry they touched.
var titled = map[Mutation]bool{
	UpdateTutorial: true,
	DeleteTutorial: true,
}

// Targets returns the key prefixes a successful mutation invalidates. For
// tutorial updates and deletes, title selects the specific tutorial entry.
func Targets(m Mutation, title string) []querycache.Key {
	names := table[m]
	keys := make([]querycache.Key, 0, len(names)+1)
	for _, name := range names {
		keys = append(keys, querycache.NewKey(name))
	}
	if titled[m] && title != "" {
		keys = append(keys, querycache.NewKey(Tutorial, title))
	}
	return keys
}

// Engine applies the rules to a cache.
type Engine struct {
	cache  *querycache.Cache
	logger *slog.Logger
}

// New creates an Engine bound to cache.
func New(cache *querycache.Cache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cache: cache, logger: logger}
}

// Apply invalidates every target of m. Call it only after m succeeded.
func (e *Engine) Apply(m Mutation, title string) {
	targets := Targets(m, title)
	total := 0
	for _, key := range targets {
		total += e.cache.Invalidate(key)
	}
	e.logger.Debug("Applied invalidation rules", "mutation", string(m), "prefixes", len(targets), "entries", total)
}

// Run executes call and, only if it succeeds, applies the rules for m.
// The call's error is returned unchanged.
func (e *Engine) Run(m Mutation, title string, call func() error) error {
	if err := call(); err != nil {
		e.logger.Debug("Mutation failed, cache left untouched", "mutation", string(m), "error", err)
		return err
	}
	e.Apply(m, title)
	return nil
}
