// ABOUTME: Unit tests for rate limiting middleware
// ABOUTME: Tests the fixed-window limiter, key extraction and the 429 response

package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/caffeinepub/crocheting-app/backend/models"
)

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter(2, 50*time.Millisecond)

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("k"); !ok {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	ok, retryAfter := rl.Allow("k")
	if ok {
		t.Fatal("Third request should be rejected")
	}
	if retryAfter <= 0 || retryAfter > 50*time.Millisecond {
		t.Errorf("retryAfter = %v, want within the window", retryAfter)
	}

	if ok, _ := rl.Allow("other"); !ok {
		t.Error("Keys should have separate quotas")
	}

	time.Sleep(60 * time.Millisecond)
	if ok, _ := rl.Allow("k"); !ok {
		t.Error("Request after the window should be allowed")
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(50, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := rl.Allow("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}

func TestRateLimiter_SweepsExpiredWindows(t *testing.T) {
	rl := NewRateLimiter(1, time.Millisecond)
	for i := 0; i < 50; i++ {
		rl.Allow(fmt.Sprintf("old-%d", i))
	}
	time.Sleep(5 * time.Millisecond)
	for i := 0; i < 100; i++ {
		rl.Allow(fmt.Sprintf("new-%d", i))
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for i := 0; i < 50; i++ {
		if _, ok := rl.windows[fmt.Sprintf("old-%d", i)]; ok {
			t.Fatalf("old-%d should have been swept", i)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		xff      string
		remote   string
		expected string
	}{
		{"leftmost forwarded", "203.0.113.1, 10.0.0.1", "", "ip:203.0.113.1"},
		{"forwarded with spaces", "  203.0.113.1 , 10.0.0.1 ", "", "ip:203.0.113.1"},
		{"garbage forwarded", "not-an-ip", "192.168.1.1:1", "ip:192.168.1.1"},
		{"remote with port", "", "192.168.1.1:12345", "ip:192.168.1.1"},
		{"remote without port", "", "192.168.1.1", "ip:192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			if got := ClientIP(r); got != tt.expected {
				t.Errorf("ClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPrincipalOrIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := PrincipalOrIP(r); got != "ip:10.0.0.1" {
		t.Errorf("anonymous key = %q, want ip:10.0.0.1", got)
	}

	r = r.WithContext(WithSession(r.Context(), &models.Session{Principal: "alice"}))
	if got := PrincipalOrIP(r); got != "principal:alice" {
		t.Errorf("authenticated key = %q, want principal:alice", got)
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	for name, mw := range map[string]Middleware{
		"nil limiter": RateLimit(nil, ClientIP),
		"empty key":   RateLimit(NewRateLimiter(1, time.Minute), func(*http.Request) string { return "" }),
	} {
		t.Run(name, func(t *testing.T) {
			calls := 0
			h := mw(func(w http.ResponseWriter, r *http.Request) { calls++ })
			for i := 0; i < 3; i++ {
				h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			}
			if calls != 3 {
				t.Errorf("calls = %d, want 3", calls)
			}
		})
	}
}

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	h := RateLimit(NewRateLimiter(1, time.Minute), ClientIP)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h(w, r)
		return w
	}

	if w := send(); w.Code != http.StatusOK {
		t.Fatalf("First request should be 200, got %d", w.Code)
	}
	w := send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Second request should be 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	if body.Error != "Rate limit exceeded" || body.Code != http.StatusTooManyRequests {
		t.Errorf("Unexpected body: %+v", body)
	}
}
