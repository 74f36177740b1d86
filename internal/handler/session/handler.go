// Package session exposes the session context, room joining, calls and the
// admin dashboard over HTTP.
package session

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/vyne/backend/internal/service/admin"
	"github.com/zhouzirui/vyne/backend/internal/service/dialpad"
	"github.com/zhouzirui/vyne/backend/internal/service/session"
	"github.com/zhouzirui/vyne/backend/pkg/utils"
)

// Handler exposes the session state container: navigation, the join dial
// pad, the call lifecycle and the admin dashboard.
type Handler struct {
	session *session.Session
	admin   *admin.Service
}

// New creates the session handler.
func New(sess *session.Session, adminSvc *admin.Service) *Handler {
	return &Handler{session: sess, admin: adminSvc}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.handleSnapshot)
	r.Post("/session/view", h.handleSetView)
	r.Post("/session/rooms/{roomID}/select", h.handleSelectRoom)

	r.Post("/join", h.handleJoin)
	r.Post("/join/press", h.handlePress)
	r.Post("/join/delete", h.handleDelete)
	r.Post("/join/submit", h.handleSubmit)

	r.Route("/calls", func(r chi.Router) {
		r.Get("/", h.handleCall)
		r.Post("/incoming", h.handleIncoming)
		r.Post("/accept", h.handleAccept)
		r.Post("/decline", h.handleDecline)
		r.Post("/start", h.handleStart)
		r.Post("/end", h.handleEnd)
		r.Post("/mute", h.handleMute)
		r.Post("/speaker", h.handleSpeaker)
	})

	r.Get("/admin", h.handleAdmin)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handler) handleSetView(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		View session.View `json:"view"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.session.SetView(payload.View); err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handler) handleSelectRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SelectRoom(chi.URLParam(r, "roomID")); err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	joined, err := h.session.JoinByCode(payload.Code)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, joined)
}

func (h *Handler) handlePress(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key string `json:"key"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	state, err := h.session.PressKey(payload.Key)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.session.DeleteKey())
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	state, err := h.session.SubmitCode()
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, state)
	case errors.Is(err, session.ErrInvalidCode):
		// The pad carries the rejection message for the client to show.
		utils.RespondJSON(w, http.StatusUnprocessableEntity, state)
	default:
		respondSessionError(w, err)
	}
}

func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.session.Call()
	if !ok {
		respondSessionError(w, session.ErrNoActiveCall)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleIncoming(w http.ResponseWriter, r *http.Request) {
	incoming, err := h.session.SimulateIncomingCall()
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, incoming)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.AcceptCall()
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeclineCall(); err != nil {
		respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.StartCall()
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.EndCall()
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleMute(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.ToggleMute()
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleSpeaker(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.ToggleSpeaker()
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	dash, err := h.admin.Dashboard(h.session.CurrentUser())
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, dash)
}

func respondSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidView), errors.Is(err, dialpad.ErrInvalidKey), errors.Is(err, dialpad.ErrTooShort):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrInvalidCode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoIncomingCall), errors.Is(err, session.ErrNoActiveCall):
		status = http.StatusConflict
	case errors.Is(err, admin.ErrForbidden):
		status = http.StatusForbidden
	}
	utils.RespondError(w, status, err.Error())
}
