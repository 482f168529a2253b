// ABOUTME: CORS middleware for API cross-origin requests
// ABOUTME: Echoes allowed origins and answers preflight OPTIONS

package middleware

import (
	"net/http"
	"slices"
)

// CORS returns middleware that allows cross-origin requests from the listed
// origins. Requests from other origins get no CORS headers. Preflight
// requests are answered with 204 without calling the wrapped handler.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next(w, r)
		}
	}
}
