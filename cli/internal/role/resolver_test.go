// ABOUTME: Tests for the admin role resolver
// ABOUTME: Exercises default-deny across logins, logouts and identity switches

package role

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/connection"
	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
	"github.com/caffeinepub/crocheting-app/cli/internal/invalidation"
	"github.com/caffeinepub/crocheting-app/cli/internal/querycache"
)

type fakeActor struct {
	client.Actor
	admin bool
	err   error
	mu    *sync.Mutex
	calls *int
}

func (a fakeActor) IsCallerAdmin(ctx context.Context) (bool, error) {
	a.mu.Lock()
	*a.calls++
	a.mu.Unlock()
	return a.admin, a.err
}

type scriptedAuth struct {
	ids []*identity.Identity
}

func (a *scriptedAuth) Authenticate(ctx context.Context) (*identity.Identity, error) {
	id := a.ids[0]
	a.ids = a.ids[1:]
	return id, nil
}

func (a *scriptedAuth) Resume(ctx context.Context) (*identity.Identity, error) { return nil, nil }

func (a *scriptedAuth) Clear(ctx context.Context, id *identity.Identity) error { return nil }

type fixture struct {
	session  *identity.Session
	provider *connection.Provider
	cache    *querycache.Cache
	resolver *Resolver
	calls    int
	mu       sync.Mutex
}

func newFixture(t *testing.T, admins map[string]bool, ids ...*identity.Identity) *fixture {
	t.Helper()
	f := &fixture{cache: querycache.New()}
	f.session = identity.NewSession(&scriptedAuth{ids: ids})

	engine := invalidation.New(f.cache, nil)
	f.session.OnChange(func(prev, next *identity.Identity) {
		engine.Apply(invalidation.IdentityChange, "")
	})

	dial := func(ctx context.Context, id *identity.Identity) (client.Actor, error) {
		return fakeActor{admin: admins[id.Principal], mu: &f.mu, calls: &f.calls}, nil
	}
	f.provider = connection.NewProvider(f.session, dial)
	f.resolver = NewResolver(f.cache, f.provider, nil)
	return f
}

func (f *fixture) login(t *testing.T) *identity.Identity {
	t.Helper()
	id, err := f.session.Login(context.Background())
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := f.provider.Wait(context.Background()); err != nil {
		t.Fatalf("connection: %v", err)
	}
	return id
}

func TestResolve_AnonymousIsUnknown(t *testing.T) {
	f := newFixture(t, nil)

	flag, err := f.resolver.Resolve(context.Background(), nil)
	if err != nil || flag != FlagUnknown {
		t.Errorf("expected unknown with no error, got %s, %v", flag, err)
	}
	if f.resolver.Allowed(nil) {
		t.Error("expected anonymous to be denied")
	}
	if f.calls != 0 {
		t.Errorf("expected no backend calls, got %d", f.calls)
	}
}

func TestResolve_UnknownBeforeConnection(t *testing.T) {
	f := newFixture(t, map[string]bool{"alice": true}, &identity.Identity{Principal: "alice"})
	alice := &identity.Identity{Principal: "alice"}

	if got := f.resolver.Load(alice); got != FlagUnknown {
		t.Errorf("expected unknown without a connection for alice, got %s", got)
	}
}

func TestResolve_GrantedAndDenied(t *testing.T) {
	tests := []struct {
		name  string
		admin bool
		want  Flag
	}{
		{"admin", true, FlagGranted},
		{"member", false, FlagDenied},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, map[string]bool{"p": tc.admin}, &identity.Identity{Principal: "p"})
			id := f.login(t)

			if got := f.resolver.Flag(id); got != FlagUnknown {
				t.Errorf("expected unknown before resolution, got %s", got)
			}
			flag, err := f.resolver.Resolve(context.Background(), id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if flag != tc.want {
				t.Errorf("expected %s, got %s", tc.want, flag)
			}
			if f.resolver.Allowed(id) != (tc.want == FlagGranted) {
				t.Errorf("Allowed disagrees with flag %s", flag)
			}
		})
	}
}

func TestResolve_ErrorIsUnknown(t *testing.T) {
	f := &fixture{cache: querycache.New()}
	f.session = identity.NewSession(&scriptedAuth{ids: []*identity.Identity{{Principal: "p"}}})
	boom := errors.New("boom")
	f.provider = connection.NewProvider(f.session, func(ctx context.Context, id *identity.Identity) (client.Actor, error) {
		return fakeActor{err: boom, mu: &f.mu, calls: &f.calls}, nil
	})
	f.resolver = NewResolver(f.cache, f.provider, nil)
	id := f.login(t)

	flag, err := f.resolver.Resolve(context.Background(), id)
	if !errors.Is(err, boom) || flag != FlagUnknown {
		t.Errorf("expected unknown with boom, got %s, %v", flag, err)
	}
	if f.resolver.Allowed(id) {
		t.Error("expected failed resolution to deny")
	}
}

func TestResolve_AdminRevokedOnLogoutAndNotReusedForNextIdentity(t *testing.T) {
	alice := &identity.Identity{Principal: "alice"}
	bob := &identity.Identity{Principal: "bob"}
	f := newFixture(t, map[string]bool{"alice": true}, alice, bob)
	ctx := context.Background()

	f.login(t)
	if flag, _ := f.resolver.Resolve(ctx, alice); flag != FlagGranted {
		t.Fatalf("expected alice granted, got %s", flag)
	}

	f.session.Logout(ctx)
	if f.resolver.Allowed(f.session.Identity()) {
		t.Error("expected admin revoked synchronously on logout")
	}
	if got := f.resolver.Flag(alice); got != FlagUnknown {
		t.Errorf("expected alice's cached role to be stale, got %s", got)
	}

	f.login(t)
	if f.resolver.Allowed(f.session.Identity()) {
		t.Error("expected bob denied before resolution")
	}
	if flag, _ := f.resolver.Resolve(ctx, bob); flag != FlagDenied {
		t.Errorf("expected bob denied, got %s", flag)
	}
	if f.resolver.Allowed(f.session.Identity()) {
		t.Error("expected bob to stay denied")
	}
}

func TestResolve_ReloginRefetches(t *testing.T) {
	alice := &identity.Identity{Principal: "alice"}
	f := newFixture(t, map[string]bool{"alice": true}, alice, alice)
	ctx := context.Background()

	f.login(t)
	f.resolver.Resolve(ctx, alice)
	f.session.Logout(ctx)
	f.login(t)

	if got := f.resolver.Flag(alice); got != FlagUnknown {
		t.Errorf("expected unknown until refetched, got %s", got)
	}
	f.resolver.Resolve(ctx, alice)
	if f.calls != 2 {
		t.Errorf("expected a second backend call after re-login, got %d", f.calls)
	}
}

func TestFlagString(t *testing.T) {
	tests := []struct {
		flag Flag
		want string
	}{
		{FlagUnknown, "unknown"},
		{FlagGranted, "granted"},
		{FlagDenied, "denied"},
	}
	for _, tc := range tests {
		if got := tc.flag.String(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}
