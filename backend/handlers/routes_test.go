// ABOUTME: Tests for route table definitions
// ABOUTME: Verifies all routes have required fields, no duplicates and the right access

package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/caffeinepub/crocheting-app/backend/cache"
)

func testRoutes(t *testing.T) []Route {
	t.Helper()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	return NewHandler(testConfig(), c).Routes()
}

func TestRoutes_AllRoutesHaveRequiredFields(t *testing.T) {
	routes := testRoutes(t)
	if len(routes) == 0 {
		t.Fatal("Routes() returned empty slice")
	}

	for i, route := range routes {
		if route.Method == "" {
			t.Errorf("Route %d: Method is empty", i)
		}
		if route.Handler == nil {
			t.Errorf("Route %d: Handler is nil", i)
		}
		if !strings.HasPrefix(route.Path, "/api/v1/") {
			t.Errorf("Route %d: Path %q must start with /api/v1/", i, route.Path)
		}
	}
}

func TestRoutes_NoDuplicatePatterns(t *testing.T) {
	seen := make(map[string]bool)
	for _, route := range testRoutes(t) {
		if seen[route.Pattern()] {
			t.Errorf("Duplicate route: %s", route.Pattern())
		}
		seen[route.Pattern()] = true
	}
}

func TestRoutes_ExpectedAccess(t *testing.T) {
	expected := map[string]Access{
		"GET /api/v1/health":                     Public,
		"POST /api/v1/auth/challenge":            Public,
		"POST /api/v1/auth/login":                Public,
		"POST /api/v1/auth/logout":               Authenticated,
		"GET /api/v1/auth/me":                    Authenticated,
		"GET /api/v1/auth/admin":                 Authenticated,
		"GET /api/v1/profile":                    Authenticated,
		"PUT /api/v1/profile":                    Authenticated,
		"GET /api/v1/users/{principal}/profile":  Authenticated,
		"GET /api/v1/projects":                   Authenticated,
		"POST /api/v1/projects":                  Authenticated,
		"PUT /api/v1/projects":                   Authenticated,
		"GET /api/v1/users/{principal}/projects": Authenticated,
		"GET /api/v1/tutorials":                  Authenticated,
		"GET /api/v1/tutorials/{title}":          Authenticated,
		"POST /api/v1/tutorials":                 AdminOnly,
		"PUT /api/v1/tutorials/{title}":          AdminOnly,
		"DELETE /api/v1/tutorials/{title}":       AdminOnly,
		"POST /api/v1/blobs":                     Authenticated,
		"GET /api/v1/blobs/{hash}":               Public,
	}

	routes := testRoutes(t)
	if len(routes) != len(expected) {
		t.Errorf("Routes() has %d routes, want %d", len(routes), len(expected))
	}
	for _, route := range routes {
		want, ok := expected[route.Pattern()]
		if !ok {
			t.Errorf("Unexpected route: %s", route.Pattern())
			continue
		}
		if route.Access != want {
			t.Errorf("%s: Access = %d, want %d", route.Pattern(), route.Access, want)
		}
	}
}

func TestRoutes_LoginIsAuthRateLimited(t *testing.T) {
	for _, route := range testRoutes(t) {
		if strings.HasPrefix(route.Path, "/api/v1/auth/") && route.Access == Public && route.Rate != RateAuth {
			t.Errorf("%s should use the auth rate limit", route.Pattern())
		}
	}
}
