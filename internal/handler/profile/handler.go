// Package profile exposes the profile directory over HTTP.
package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/pkg/utils"
)

// Handler serves the profile directory.
type Handler struct {
	profiles profile.Store
}

// New creates the profile handler.
func New(profiles profile.Store) *Handler {
	return &Handler{profiles: profiles}
}

// RegisterRoutes mounts the directory routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleList)
	r.Get("/profiles/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profiles.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.profiles.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "profile not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}
