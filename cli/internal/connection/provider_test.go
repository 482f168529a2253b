// ABOUTME: Tests for the identity-bound connection provider
// ABOUTME: Covers handshake gating, rebinding on identity change and stale handshake discard

package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
)

// scriptedAuth hands out identities in order.
type scriptedAuth struct {
	mu  sync.Mutex
	ids []*identity.Identity
}

func (a *scriptedAuth) Authenticate(ctx context.Context) (*identity.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.ids) == 0 {
		return nil, errors.New("no identities left")
	}
	id := a.ids[0]
	a.ids = a.ids[1:]
	return id, nil
}

func (a *scriptedAuth) Resume(ctx context.Context) (*identity.Identity, error) { return nil, nil }

func (a *scriptedAuth) Clear(ctx context.Context, id *identity.Identity) error { return nil }

// gatedDialer blocks each handshake until released for that principal.
type gatedDialer struct {
	mu    sync.Mutex
	gates map[string]chan error
	calls map[string]int
}

func newGatedDialer() *gatedDialer {
	return &gatedDialer{gates: map[string]chan error{}, calls: map[string]int{}}
}

func (d *gatedDialer) gate(p string) chan error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gates[p] == nil {
		d.gates[p] = make(chan error, 1)
	}
	return d.gates[p]
}

func (d *gatedDialer) release(p string, err error) { d.gate(p) <- err }

func (d *gatedDialer) dial(ctx context.Context, id *identity.Identity) (client.Actor, error) {
	d.mu.Lock()
	d.calls[id.Principal]++
	d.mu.Unlock()
	if err := <-d.gate(id.Principal); err != nil {
		return nil, err
	}
	return client.New("http://" + id.Principal + ".invalid"), nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestProvider_AnonymousHasNoConnection(t *testing.T) {
	s := identity.NewSession(&scriptedAuth{})
	p := NewProvider(s, newGatedDialer().dial)

	if _, ok := p.Current(); ok {
		t.Error("expected no connection while anonymous")
	}
	if p.IsFetching() {
		t.Error("expected not fetching while anonymous")
	}
	if _, err := p.Wait(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestProvider_HandshakeGatesConnection(t *testing.T) {
	dialer := newGatedDialer()
	s := identity.NewSession(&scriptedAuth{ids: []*identity.Identity{{Principal: "alice"}}})
	p := NewProvider(s, dialer.dial)

	if _, err := s.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !p.IsFetching() {
		t.Error("expected handshake in progress")
	}
	if _, ok := p.Current(); ok {
		t.Error("expected no connection before handshake completes")
	}

	dialer.release("alice", nil)
	conn, err := p.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if conn.Fingerprint() != "alice" {
		t.Errorf("expected alice connection, got %s", conn.Fingerprint())
	}
	if p.IsFetching() {
		t.Error("expected fetching to end")
	}
}

func TestProvider_IdentityChangeClosesOldConnection(t *testing.T) {
	dialer := newGatedDialer()
	s := identity.NewSession(&scriptedAuth{ids: []*identity.Identity{{Principal: "alice"}, {Principal: "bob"}}})
	p := NewProvider(s, dialer.dial)
	ctx := context.Background()

	s.Login(ctx)
	dialer.release("alice", nil)
	alice, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}

	var seenDuringChange []bool
	s.OnChange(func(prev, next *identity.Identity) {
		_, ok := p.Current()
		seenDuringChange = append(seenDuringChange, ok)
	})

	s.Logout(ctx)
	if _, err := alice.Actor(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from previous connection, got %v", err)
	}
	if len(seenDuringChange) != 1 || seenDuringChange[0] {
		t.Errorf("expected listeners to observe no connection, got %v", seenDuringChange)
	}

	s.Login(ctx)
	dialer.release("bob", nil)
	bob, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if bob.Fingerprint() != "bob" || bob == alice {
		t.Errorf("expected fresh bob connection, got %s", bob.Fingerprint())
	}
}

func TestProvider_StaleHandshakeDiscarded(t *testing.T) {
	dialer := newGatedDialer()
	s := identity.NewSession(&scriptedAuth{ids: []*identity.Identity{{Principal: "alice"}, {Principal: "bob"}}})
	p := NewProvider(s, dialer.dial)
	ctx := context.Background()

	s.Login(ctx)
	waitFor(t, func() bool {
		dialer.mu.Lock()
		defer dialer.mu.Unlock()
		return dialer.calls["alice"] == 1
	})
	s.Logout(ctx)
	s.Login(ctx)

	// alice's handshake finishes after bob became active.
	dialer.release("alice", nil)
	time.Sleep(10 * time.Millisecond)
	if conn, ok := p.Current(); ok {
		t.Fatalf("expected no connection, got one for %s", conn.Fingerprint())
	}

	dialer.release("bob", nil)
	conn, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if conn.Fingerprint() != "bob" {
		t.Errorf("expected bob connection, got %s", conn.Fingerprint())
	}
}

func TestProvider_HandshakeFailureAndReconnect(t *testing.T) {
	dialer := newGatedDialer()
	s := identity.NewSession(&scriptedAuth{ids: []*identity.Identity{{Principal: "alice"}}})
	p := NewProvider(s, dialer.dial)
	ctx := context.Background()

	var mu sync.Mutex
	var notified []*Connection
	p.OnChange(func(c *Connection) {
		mu.Lock()
		notified = append(notified, c)
		mu.Unlock()
	})

	s.Login(ctx)
	boom := errors.New("backend down")
	dialer.release("alice", boom)
	if _, err := p.Wait(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected handshake error, got %v", err)
	}
	if !errors.Is(p.Err(), boom) {
		t.Errorf("expected Err to report failure, got %v", p.Err())
	}

	p.Reconnect()
	dialer.release("alice", nil)
	conn, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("wait after reconnect: %v", err)
	}
	if conn.Fingerprint() != "alice" {
		t.Errorf("expected alice, got %s", conn.Fingerprint())
	}

	mu.Lock()
	defer mu.Unlock()
	if last := notified[len(notified)-1]; last != conn {
		t.Error("expected listeners told about the new connection")
	}
}

func TestProvider_WaitHonorsContext(t *testing.T) {
	s := identity.NewSession(&scriptedAuth{ids: []*identity.Identity{{Principal: "alice"}}})
	p := NewProvider(s, newGatedDialer().dial)
	s.Login(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestHTTPDialer_SendsBearerAndChecksPrincipal(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(client.WhoAmI{Principal: "alice"})
	}))
	defer server.Close()

	dial := HTTPDialer(server.URL, nil)
	ctx := context.Background()

	actor, err := dial(ctx, &identity.Identity{Principal: "alice", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor == nil {
		t.Fatal("expected actor")
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}

	if _, err := dial(ctx, &identity.Identity{Principal: "bob", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}); err == nil {
		t.Error("expected principal mismatch to fail the handshake")
	}
}
