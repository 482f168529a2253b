// ABOUTME: Bearer token authentication middleware
// ABOUTME: Verifies session tokens and puts the session in the request context

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/caffeinepub/crocheting-app/backend/models"
)

// TokenVerifier turns a bearer token into a session.
type TokenVerifier interface {
	Verify(token string) (*models.Session, error)
}

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const sessionKey contextKey = "session"

// Authenticate returns middleware that rejects requests without a valid
// bearer token.
func Authenticate(v TokenVerifier) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				slog.Debug("Auth rejected: no auth provided", "path", sanitizePath(r.URL.Path))
				writeJSONError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				slog.Debug("Auth rejected: invalid format", "path", sanitizePath(r.URL.Path))
				writeJSONError(w, "Invalid authorization format", http.StatusUnauthorized)
				return
			}

			session, err := v.Verify(token)
			if err != nil {
				slog.Debug("Auth rejected: invalid token", "path", sanitizePath(r.URL.Path), "error", err)
				writeJSONError(w, err.Error(), http.StatusUnauthorized)
				return
			}

			next(w, r.WithContext(WithSession(r.Context(), session)))
		}
	}
}

// WithSession returns ctx carrying session.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// GetSession extracts the session from request context.
// Returns nil if the request was not authenticated.
func GetSession(r *http.Request) *models.Session {
	session, ok := r.Context().Value(sessionKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// Principal returns the authenticated caller, or "" for anonymous requests.
func Principal(r *http.Request) string {
	if s := GetSession(r); s != nil {
		return s.Principal
	}
	return ""
}
