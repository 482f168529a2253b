// ABOUTME: Project handlers
// ABOUTME: List all or one creator's projects, publish new ones and record progress

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/caffeinepub/crocheting-app/backend/middleware"
	"github.com/caffeinepub/crocheting-app/backend/models"
	"github.com/caffeinepub/crocheting-app/backend/services"
)

func (h *Handler) GetAllProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Projects(""))
}

func (h *Handler) GetUserProjects(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	if err := services.ValidatePrincipal(principal); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Projects(principal))
}

// AddProject publishes a project owned by the caller.
func (h *Handler) AddProject(w http.ResponseWriter, r *http.Request) {
	var np models.NewProject
	if !decodeBody(w, r, &np) {
		return
	}

	creator := middleware.Principal(r)
	p, err := h.store.AddProject(creator, np)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	slog.Info("Project published", "creator", creator, "title", p.Title, "images", len(p.Images))
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProject records progress on one of the caller's projects.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var u models.ProjectUpdate
	if !decodeBody(w, r, &u) {
		return
	}

	p, err := h.store.UpdateProject(middleware.Principal(r), u)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
