// ABOUTME: Round-trip tests of the client against the real backend handlers
// ABOUTME: Signs in with an ed25519 key and drives every actor operation over HTTP

package client

import (
	"context"
	"crypto/ed25519"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/caffeinepub/crocheting-app/backend/cache"
	"github.com/caffeinepub/crocheting-app/backend/config"
	"github.com/caffeinepub/crocheting-app/backend/handlers"
	"github.com/caffeinepub/crocheting-app/cli/internal/blob"
	"github.com/caffeinepub/crocheting-app/internal/principal"
)

var tinyPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)

	cfg := &config.Config{
		TokenSecret:         "0123456789abcdef0123456789abcdef",
		TokenTTL:            time.Hour,
		ChallengeTTL:        time.Minute,
		MaxBlobBytes:        1 << 20,
		BootstrapFirstAdmin: true,
	}
	srv := httptest.NewUnstartedServer(nil)
	cfg.PublicURL = "http://" + srv.Listener.Addr().String()
	srv.Config.Handler = handlers.NewHandler(cfg, c).Mux()
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

// signIn performs the challenge handshake and returns a client bound to the session.
func signIn(t *testing.T, ctx context.Context, base string) (*Client, string, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	anon := New(base)
	ch, err := anon.Challenge(ctx, pub)
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	grant, err := anon.Exchange(ctx, pub, ch.ID, ed25519.Sign(priv, principal.ChallengeMessage(ch.Nonce)))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if grant.Principal != principal.FromPublicKey(pub) {
		t.Fatalf("principal = %q, want %q", grant.Principal, principal.FromPublicKey(pub))
	}

	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: grant.Token, TokenType: "Bearer"}))
	fetcher := blob.NewFetcher(http.DefaultClient, 8, time.Minute, slog.Default())
	return New(base, WithHTTPClient(hc), WithBlobFetcher(fetcher)), grant.Principal, grant.Token
}

func TestBackend_StudioRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t)
	c, me, _ := signIn(t, ctx, srv.URL)

	who, err := c.Me(ctx)
	if err != nil || who.Principal != me {
		t.Fatalf("Me = %+v, %v", who, err)
	}
	if admin, err := c.IsCallerAdmin(ctx); err != nil || !admin {
		t.Errorf("First principal should be admin: %v, %v", admin, err)
	}

	if p, err := c.GetCallerUserProfile(ctx); err != nil || p != nil {
		t.Errorf("Expected no profile yet, got %+v, %v", p, err)
	}
	if err := c.SaveCallerUserProfile(ctx, Profile{Name: "Ada", Bio: "Amigurumi"}); err != nil {
		t.Fatalf("SaveCallerUserProfile: %v", err)
	}
	if p, err := c.GetUserProfile(ctx, me); err != nil || p == nil || p.Name != "Ada" {
		t.Errorf("GetUserProfile = %+v, %v", p, err)
	}

	hosted, err := c.UploadBlob(ctx, blob.FromBytes(tinyPNG))
	if err != nil {
		t.Fatalf("UploadBlob: %v", err)
	}
	if !hosted.Hosted() || hosted.ContentType() != "image/png" {
		t.Errorf("Unexpected hosted reference: %+v", hosted)
	}

	err = c.AddProject(ctx, NewProject{
		Title:       "Bunny",
		Description: "Tiny amigurumi bunny",
		Images:      []*blob.Reference{hosted},
		Materials:   []Material{{Name: "Cotton", Unit: "g", Quantity: 25}},
	})
	if err != nil {
		t.Fatalf("AddProject: %v", err)
	}
	if err := c.UpdateProject(ctx, ProjectUpdate{Title: "Bunny", Images: []*blob.Reference{hosted}, CompletionPercentage: 50, TimeSpentMinutes: 45}); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}

	projects, err := c.GetProjects(ctx, me)
	if err != nil || len(projects) != 1 {
		t.Fatalf("GetProjects = %+v, %v", projects, err)
	}
	if projects[0].CompletionPercentage != 50 || projects[0].Images[0].Hash() != hosted.Hash() {
		t.Errorf("Unexpected project: %+v", projects[0])
	}
	data, err := projects[0].Images[0].Bytes(ctx)
	if err != nil || len(data) != len(tinyPNG) {
		t.Errorf("Image bytes = %d, %v", len(data), err)
	}

	tut := Tutorial{Title: "Slip knot", Difficulty: DifficultyBeginner, Steps: []string{"Loop", "Pull"}, Materials: []string{}}
	if err := c.CreateTutorial(ctx, tut); err != nil {
		t.Fatalf("CreateTutorial: %v", err)
	}
	tut.Difficulty = DifficultyIntermediate
	if err := c.UpdateTutorial(ctx, tut); err != nil {
		t.Fatalf("UpdateTutorial: %v", err)
	}
	got, err := c.GetTutorial(ctx, "Slip knot")
	if err != nil || got == nil || got.Difficulty != DifficultyIntermediate {
		t.Errorf("GetTutorial = %+v, %v", got, err)
	}
	if err := c.DeleteTutorial(ctx, "Slip knot"); err != nil {
		t.Fatalf("DeleteTutorial: %v", err)
	}
	if got, err := c.GetTutorial(ctx, "Slip knot"); err != nil || got != nil {
		t.Errorf("Deleted tutorial = %+v, %v", got, err)
	}
}

func TestBackend_MemberCannotManageTutorials(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t)
	signIn(t, ctx, srv.URL)
	member, _, _ := signIn(t, ctx, srv.URL)

	err := member.CreateTutorial(ctx, Tutorial{Title: "Nope", Difficulty: DifficultyBeginner, Steps: []string{"x"}})
	if StatusOf(err) != http.StatusForbidden {
		t.Errorf("Expected 403, got %v", err)
	}
}

func TestBackend_RevokedTokenIsRejected(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t)
	c, _, token := signIn(t, ctx, srv.URL)

	if err := New(srv.URL).Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := c.Me(ctx); StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %v", err)
	}
}
