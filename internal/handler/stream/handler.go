// Package stream pushes hub events to presentation clients over Server-Sent
// Events and websocket.
package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/model/chat"
	"github.com/zhouzirui/vyne/backend/internal/service/events"
	"github.com/zhouzirui/vyne/backend/pkg/utils"
)

const (
	subscriberBuffer  = 64
	heartbeatInterval = 15 * time.Second
	pingInterval      = 54 * time.Second
	readTimeout       = 60 * time.Second
)

// Source is the subscribe side of the event hub.
type Source interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

// Sender posts chat messages on behalf of the signed-in user.
type Sender interface {
	SendAsCurrentUser(ctx context.Context, roomID, text string) (chat.Message, bool, error)
}

// Handler serves /events and /ws.
type Handler struct {
	source    Source
	sender    Sender
	upgrader  websocket.Upgrader
	heartbeat time.Duration
}

// New creates the stream handler. sender may be nil, in which case websocket
// clients are read-only.
func New(source Source, sender Sender) *Handler {
	return &Handler{
		source: source,
		sender: sender,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		heartbeat: heartbeatInterval,
	}
}

// RegisterRoutes mounts the streaming routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleSSE)
	r.Get("/ws", h.handleWebSocket)
}

// matches reports whether evt passes the optional room filter. Events
// without a room are broadcast to everyone.
func matches(evt events.Event, roomID string) bool {
	return roomID == "" || evt.RoomID == "" || evt.RoomID == roomID
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	roomID := r.URL.Query().Get("room")
	ch, cancel := h.source.Subscribe(subscriberBuffer)
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	l := logging.Ctx(r.Context())
	l.Debug().Str(logging.FieldRoomID, roomID).Msg("sse stream opened")

	if err := utils.SendSSEEvent(w, flusher, "status", map[string]string{"message": "stream established"}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			l.Debug().Msg("sse stream closed")
			return
		case <-heartbeat.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if !matches(evt, roomID) {
				continue
			}
			if err := utils.SendSSEEvent(w, flusher, evt.Type, evt); err != nil {
				return
			}
		}
	}
}
