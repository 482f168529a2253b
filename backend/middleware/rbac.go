// ABOUTME: Role-based access control middleware for API endpoints
// ABOUTME: Gates tutorial management to principals holding the admin role

package middleware

import (
	"log/slog"
	"net/http"
)

// RequireAdmin returns middleware that allows only principals for which
// isAdmin reports true. It must run after Authenticate; requests without a
// session are rejected with 401 and non-admins with 403.
func RequireAdmin(isAdmin func(principal string) bool) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			principal := Principal(r)
			if principal == "" {
				writeJSONError(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if !isAdmin(principal) {
				slog.Warn("RBAC authorization denied",
					"path", sanitizePath(r.URL.Path),
					"method", r.Method,
					"principal", principal,
				)
				writeJSONError(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next(w, r)
		}
	}
}
