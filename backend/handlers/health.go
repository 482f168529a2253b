// ABOUTME: Health check handler
// ABOUTME: Reports service status and record counts

package handlers

import (
	"net/http"

	"github.com/caffeinepub/crocheting-app/backend/models"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	projects, tutorials := h.store.Counts()
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Projects:  projects,
		Tutorials: tutorials,
		Blobs:     h.blobs.Count(),
	})
}
