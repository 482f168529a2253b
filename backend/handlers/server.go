// ABOUTME: Builds the HTTP mux from the route table
// ABOUTME: Wraps each route in logging, metrics, CORS, auth, rate limit and role middleware

package handlers

import (
	"net/http"
	"time"

	"github.com/caffeinepub/crocheting-app/backend/middleware"
)

// Mux registers every route with its middleware chain. Preflight requests
// for any API path are answered by the CORS middleware.
func (h *Handler) Mux() *http.ServeMux {
	limiters := h.limiters()
	cors := middleware.CORS(h.cfg.CORSAllowedOrigins)

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		chain := []middleware.Middleware{
			middleware.LogRequest,
			h.metrics.Instrument(route.Pattern()),
			cors,
		}
		if route.Access != Public {
			chain = append(chain, middleware.Authenticate(h.sessions))
		}
		if limiter := limiters[route.Rate]; limiter != nil {
			chain = append(chain, middleware.RateLimit(limiter, middleware.PrincipalOrIP))
		}
		if route.Access == AdminOnly {
			chain = append(chain, middleware.RequireAdmin(h.store.IsAdmin))
		}
		mux.HandleFunc(route.Pattern(), middleware.Chain(route.Handler, chain...))
	}

	mux.HandleFunc("OPTIONS /api/v1/", middleware.Chain(func(w http.ResponseWriter, r *http.Request) {}, cors))
	return mux
}

func (h *Handler) limiters() map[RateClass]*middleware.RateLimiter {
	if !h.cfg.RateLimitEnabled {
		return nil
	}
	return map[RateClass]*middleware.RateLimiter{
		RateAuth:    middleware.NewRateLimiter(h.cfg.RateLimitAuth, time.Minute),
		RateWrite:   middleware.NewRateLimiter(h.cfg.RateLimitWrite, time.Minute),
		RateDefault: middleware.NewRateLimiter(h.cfg.RateLimitDefault, time.Minute),
	}
}
