package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/vyne/backend/internal/logging"
)

type inboundMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	l := logging.Ctx(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch, cancelSub := h.source.Subscribe(subscriberBuffer)
	defer cancelSub()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	replies := make(chan outgoingMessage, 8)
	go h.readLoop(ctx, cancel, conn, replies, l)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	if err := conn.WriteJSON(outgoingMessage{Type: "connected", Data: map[string]string{"room": roomID}, Timestamp: time.Now().Unix()}); err != nil {
		return
	}

	// Every write happens on this goroutine.
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg := <-replies:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if !matches(evt, roomID) {
				continue
			}
			if err := conn.WriteJSON(outgoingMessage{Type: evt.Type, Data: evt, Timestamp: evt.Timestamp.Unix()}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, replies chan<- outgoingMessage, l zerolog.Logger) {
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		reply := h.handleInbound(ctx, msg)
		if reply == nil {
			continue
		}
		select {
		case replies <- *reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) handleInbound(ctx context.Context, msg inboundMessage) *outgoingMessage {
	now := time.Now().Unix()
	switch msg.Type {
	case "ping":
		return &outgoingMessage{Type: "pong", Timestamp: now}
	case "send":
		if h.sender == nil {
			return errorMessage("sending unavailable")
		}
		sent, ok, err := h.sender.SendAsCurrentUser(ctx, msg.RoomID, msg.Text)
		if err != nil {
			return errorMessage(err.Error())
		}
		if !ok {
			return nil
		}
		return &outgoingMessage{Type: "sent", Data: sent, Timestamp: now}
	default:
		return errorMessage("unsupported message type: " + msg.Type)
	}
}

func errorMessage(text string) *outgoingMessage {
	return &outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": text},
		Timestamp: time.Now().Unix(),
	}
}
