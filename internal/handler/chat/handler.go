// Package chat exposes rooms and their message sequences over HTTP.
package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/model/room"
	chatService "github.com/zhouzirui/vyne/backend/internal/service/chat"
	"github.com/zhouzirui/vyne/backend/pkg/utils"
)

// Identity resolves the signed-in user.
type Identity interface {
	CurrentUser() profile.Profile
}

// Handler serves rooms and their messages.
type Handler struct {
	chatSvc  *chatService.Service
	rooms    room.Store
	identity Identity
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, rooms room.Store, identity Identity) *Handler {
	return &Handler{chatSvc: chatSvc, rooms: rooms, identity: identity}
}

// RegisterRoutes mounts the room routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/rooms", h.handleListRooms)
	r.Route("/rooms/{roomID}", func(r chi.Router) {
		r.Get("/messages", h.handleListMessages)
		r.Post("/messages", h.handleSend)
		r.Post("/simulate", h.handleSimulate)
	})
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	all := h.rooms.List()
	out := make([]room.Room, len(all))
	for i, item := range all {
		out[i] = item.Public()
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chatSvc.Messages(chi.URLParam(r, "roomID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, msgs)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomID := chi.URLParam(r, "roomID")
	sender := h.identity.CurrentUser()
	msg, sent, err := h.chatSvc.Send(r.Context(), roomID, sender.ID, payload.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !sent {
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"sent": false})
		return
	}

	l := logging.Ctx(r.Context())
	l.Debug().Str(logging.FieldRoomID, roomID).Str(logging.FieldMessageID, msg.ID).Msg("message sent")
	utils.RespondJSON(w, http.StatusCreated, msg)
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	msg, err := h.chatSvc.SimulateIncoming(chi.URLParam(r, "roomID"), h.identity.CurrentUser().ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, msg)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrRoomNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrNotMember):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, chatService.ErrNoPeers):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
