// ABOUTME: Profile handlers
// ABOUTME: Read and save the caller's profile, read another principal's

package handlers

import (
	"net/http"

	"github.com/caffeinepub/crocheting-app/backend/middleware"
	"github.com/caffeinepub/crocheting-app/backend/models"
	"github.com/caffeinepub/crocheting-app/backend/services"
)

// GetCallerProfile returns the caller's profile, or null before one is saved.
func (h *Handler) GetCallerProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Profile(middleware.Principal(r)))
}

func (h *Handler) SaveCallerProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if !decodeBody(w, r, &p) {
		return
	}
	h.store.SaveProfile(middleware.Principal(r), p)
	writeJSON(w, http.StatusOK, p)
}

// GetUserProfile returns the profile of the principal in the path, or null.
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	if err := services.ValidatePrincipal(principal); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Profile(principal))
}
