// ABOUTME: HTTP handlers for the crochet studio API
// ABOUTME: Shared handler state plus JSON decode, encode and error mapping helpers

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/caffeinepub/crocheting-app/backend/cache"
	"github.com/caffeinepub/crocheting-app/backend/config"
	"github.com/caffeinepub/crocheting-app/backend/middleware"
	"github.com/caffeinepub/crocheting-app/backend/models"
	"github.com/caffeinepub/crocheting-app/backend/services"
	"github.com/caffeinepub/crocheting-app/internal/validate"
)

// maxJSONBody bounds request bodies other than blob uploads.
const maxJSONBody = 1 << 20

type Handler struct {
	cfg        *config.Config
	store      *services.Store
	blobs      *services.BlobStore
	sessions   *services.SessionService
	challenges *services.ChallengeService
	metrics    *middleware.Metrics
	version    string
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records login and upload events in m.
func WithMetrics(m *middleware.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(h *Handler) { h.version = v }
}

// NewHandler builds the handler and its services from cfg. Challenges and
// revoked sessions are kept in c.
func NewHandler(cfg *config.Config, c *cache.Cache, opts ...Option) *Handler {
	h := &Handler{
		cfg:        cfg,
		store:      services.NewStore(cfg.AdminPrincipals, cfg.BootstrapFirstAdmin),
		blobs:      services.NewBlobStore(cfg.MaxBlobBytes, cfg.PublicURL),
		sessions:   services.NewSessionService(cfg.TokenSecret, cfg.TokenTTL, c),
		challenges: services.NewChallengeService(cfg.ChallengeTTL, c),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Sessions verifies bearer tokens for the auth middleware.
func (h *Handler) Sessions() *services.SessionService {
	return h.sessions
}

// IsAdmin reports whether principal may manage tutorials.
func (h *Handler) IsAdmin(principal string) bool {
	return h.store.IsAdmin(principal)
}

// decodeBody reads a JSON body into v and runs its validate tags. It writes
// the error response and returns false when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeJSON(w, r, v) && validBody(w, v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		writeError(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func validBody(w http.ResponseWriter, v any) bool {
	if err := services.ValidateBody(v); err != nil {
		writeServiceError(w, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response with consistent format.
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeServiceError maps store, blob and validation errors to statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs):
		writeError(w, verrs.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		writeError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		writeError(w, "Already exists", http.StatusConflict)
	case errors.Is(err, services.ErrBlobTooLarge):
		writeError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, services.ErrUnsupportedType):
		writeError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, services.ErrEmptyBlob), errors.Is(err, services.ErrBadPublicKey):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}
