// ABOUTME: Tests for bearer token authentication and admin gating
// ABOUTME: Uses a fake verifier in place of the session service

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caffeinepub/crocheting-app/backend/models"
)

type fakeVerifier map[string]*models.Session

func (f fakeVerifier) Verify(token string) (*models.Session, error) {
	if s, ok := f[token]; ok {
		return s, nil
	}
	return nil, errors.New("invalid session token")
}

var verifier = fakeVerifier{
	"good": {ID: "id-1", Principal: "alice", ExpiresAt: time.Now().Add(time.Hour)},
}

func TestAuthenticate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"unknown token", "Bearer bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Authenticate(verifier)(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("Handler should not be called")
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestAuthenticate_ValidToken_SetsSession(t *testing.T) {
	var got string
	handler := Authenticate(verifier)(func(w http.ResponseWriter, r *http.Request) {
		got = Principal(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rec.Code)
	}
	if got != "alice" {
		t.Errorf("Principal = %q, want alice", got)
	}
}

func TestGetSession_NoSession_ReturnsNil(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetSession(req) != nil || Principal(req) != "" {
		t.Error("Expected no session on a bare request")
	}
}

func TestRequireAdmin(t *testing.T) {
	isAdmin := func(p string) bool { return p == "root" }

	tests := []struct {
		name      string
		principal string
		want      int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"member", "alice", http.StatusForbidden},
		{"admin", "root", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdmin(isAdmin)(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/tutorials/x", nil)
			if tt.principal != "" {
				req = req.WithContext(WithSession(req.Context(), &models.Session{Principal: tt.principal}))
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
