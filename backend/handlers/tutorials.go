// ABOUTME: Tutorial handlers
// ABOUTME: Anyone signed in can read tutorials; admins create, update and delete them

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/caffeinepub/crocheting-app/backend/middleware"
	"github.com/caffeinepub/crocheting-app/backend/models"
)

const defaultDifficulty = "Beginner"

func (h *Handler) GetAllTutorials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Tutorials())
}

func (h *Handler) GetTutorial(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Tutorial(r.PathValue("title"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateTutorial(w http.ResponseWriter, r *http.Request) {
	t, ok := decodeTutorial(w, r)
	if !ok {
		return
	}
	if err := h.store.CreateTutorial(t); err != nil {
		writeServiceError(w, err)
		return
	}
	slog.Info("Tutorial created", "title", t.Title, "admin", middleware.Principal(r))
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTutorial replaces the tutorial named in the path. The title itself
// cannot change.
func (h *Handler) UpdateTutorial(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	t, ok := decodeTutorial(w, r)
	if !ok {
		return
	}
	if t.Title != title {
		writeError(w, "Tutorial title cannot be changed", http.StatusBadRequest)
		return
	}
	if err := h.store.UpdateTutorial(t); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTutorial(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	if err := h.store.DeleteTutorial(title); err != nil {
		writeServiceError(w, err)
		return
	}
	slog.Info("Tutorial deleted", "title", title, "admin", middleware.Principal(r))
	w.WriteHeader(http.StatusNoContent)
}

// decodeTutorial applies the default difficulty before validating.
func decodeTutorial(w http.ResponseWriter, r *http.Request) (models.Tutorial, bool) {
	var t models.Tutorial
	if !decodeJSON(w, r, &t) {
		return models.Tutorial{}, false
	}
	if t.Difficulty == "" {
		t.Difficulty = defaultDifficulty
	}
	if !validBody(w, &t) {
		return models.Tutorial{}, false
	}
	return t, true
}
