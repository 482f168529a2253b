// ABOUTME: Test helpers for handler tests
// ABOUTME: Spins up the full mux and signs in principals with fresh ed25519 keys

package handlers

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/caffeinepub/crocheting-app/backend/cache"
	"github.com/caffeinepub/crocheting-app/backend/config"
	"github.com/caffeinepub/crocheting-app/backend/middleware"
	"github.com/caffeinepub/crocheting-app/backend/models"
	"github.com/caffeinepub/crocheting-app/internal/principal"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "8080",
		PublicURL:          "http://studio.test",
		CORSAllowedOrigins: []string{"https://studio.example.com"},
		TokenSecret:        "0123456789abcdef0123456789abcdef",
		TokenTTL:           time.Hour,
		ChallengeTTL:       time.Minute,
		MaxBlobBytes:       1024,
		RateLimitAuth:      100,
		RateLimitWrite:     100,
		RateLimitDefault:   100,
	}
}

type testServer struct {
	*httptest.Server
	h       *Handler
	metrics *middleware.Metrics
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)

	m := middleware.NewMetrics(prometheus.NewRegistry())
	h := NewHandler(cfg, c, WithMetrics(m), WithVersion("test"))
	srv := httptest.NewServer(h.Mux())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, h: h, metrics: m}
}

func (s *testServer) metricsLogins(outcome string) prometheus.Collector {
	return s.metrics.LoginCounter(outcome)
}

// user is a signed-in principal.
type user struct {
	principal string
	token     string
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v", v, err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status = %d, want %d; body %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

// challengeFor requests a challenge for a new key.
func (s *testServer) challengeFor(t *testing.T) (ed25519.PrivateKey, string, models.ChallengeResponse) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pubText := base64.StdEncoding.EncodeToString(pub)

	resp := s.do(t, http.MethodPost, "/api/v1/auth/challenge", "", models.ChallengeRequest{PublicKey: pubText})
	expectStatus(t, resp, http.StatusOK)
	return priv, pubText, decode[models.ChallengeResponse](t, resp)
}

func signChallenge(t *testing.T, priv ed25519.PrivateKey, ch models.ChallengeResponse) string {
	t.Helper()
	nonce, err := base64.StdEncoding.DecodeString(ch.Nonce)
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(priv, principal.ChallengeMessage(nonce)))
}

// login signs in a fresh principal.
func (s *testServer) login(t *testing.T) user {
	t.Helper()
	priv, pubText, ch := s.challengeFor(t)
	resp := s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
		PublicKey:   pubText,
		ChallengeID: ch.ChallengeID,
		Signature:   signChallenge(t, priv, ch),
	})
	expectStatus(t, resp, http.StatusOK)
	lr := decode[models.LoginResponse](t, resp)
	return user{principal: lr.Principal, token: lr.Token}
}
