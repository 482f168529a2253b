// ABOUTME: Auth handlers for key-based login
// ABOUTME: Challenge, login, logout, session handshake and admin role check

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/caffeinepub/crocheting-app/backend/middleware"
	"github.com/caffeinepub/crocheting-app/backend/models"
	"github.com/caffeinepub/crocheting-app/backend/services"
)

// Challenge issues a nonce for the caller's public key to sign.
func (h *Handler) Challenge(w http.ResponseWriter, r *http.Request) {
	var req models.ChallengeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.challenges.Issue(req.PublicKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Login exchanges a signed challenge for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	principal, err := h.challenges.Verify(req)
	if err != nil {
		h.metrics.ObserveLogin("rejected")
		slog.Warn("Login rejected", "error", err)
		if errors.Is(err, services.ErrBadPublicKey) {
			writeServiceError(w, err)
			return
		}
		writeError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if h.store.ClaimAdmin(principal) {
		slog.Info("First principal granted admin role", "principal", principal)
	}

	token, session, err := h.sessions.Issue(principal)
	if err != nil {
		h.metrics.ObserveLogin("error")
		writeServiceError(w, err)
		return
	}

	h.metrics.ObserveLogin("success")
	slog.Info("Login succeeded", "principal", principal)
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Principal: principal,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout revokes the caller's session token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r)
	h.sessions.Revoke(session)
	slog.Info("Logout", "principal", session.Principal)
	w.WriteHeader(http.StatusNoContent)
}

// Me describes the caller's session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r)
	writeJSON(w, http.StatusOK, models.WhoAmIResponse{
		Principal: session.Principal,
		ExpiresAt: session.ExpiresAt,
	})
}

// Admin reports whether the caller holds the admin role.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.AdminResponse{
		Admin: h.store.IsAdmin(middleware.Principal(r)),
	})
}
