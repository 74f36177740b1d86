// Package match exposes the friend match flow over HTTP.
package match

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/service/matchflow"
	"github.com/zhouzirui/vyne/backend/pkg/utils"
)

// Identity resolves the signed-in user.
type Identity interface {
	CurrentUser() profile.Profile
}

// Handler exposes the match screen.
type Handler struct {
	flow     *matchflow.Flow
	identity Identity
}

type stateResponse struct {
	matchflow.State
	Matches []matchflow.Match `json:"matches"`
}

// New creates the match handler.
func New(flow *matchflow.Flow, identity Identity) *Handler {
	return &Handler{flow: flow, identity: identity}
}

// RegisterRoutes mounts the match routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/match", h.handleStart)
	r.Get("/match", h.handleState)
	r.Delete("/match", h.handleClose)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RequesterID string `json:"requesterId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.RequesterID == "" {
		payload.RequesterID = h.identity.CurrentUser().ID
	}

	state, err := h.flow.Start(r.Context(), payload.RequesterID)
	if err != nil {
		if errors.Is(err, matchflow.ErrUnknownRequester) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusAccepted, stateResponse{State: state, Matches: []matchflow.Match{}})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, stateResponse{State: h.flow.State(), Matches: h.flow.Resolved()})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	h.flow.Close()
	w.WriteHeader(http.StatusNoContent)
}
