package stream

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/vyne/backend/internal/model/chat"
	"github.com/zhouzirui/vyne/backend/internal/service/events"
)

type fakeSender struct{}

func (fakeSender) SendAsCurrentUser(_ context.Context, roomID, text string) (chat.Message, bool, error) {
	if roomID == "missing" {
		return chat.Message{}, false, errors.New("room not found")
	}
	return chat.Message{ID: "m1", RoomID: roomID, SenderID: "u1", Content: text}, true, nil
}

func newServer(t *testing.T, hub *events.Hub) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(hub, fakeSender{}).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func waitForSubscribers(t *testing.T, hub *events.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers() == n }, time.Second, time.Millisecond)
}

func TestSSEStreamsFilteredEvents(t *testing.T) {
	hub := events.NewHub()
	srv := newServer(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?room=r1", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	waitForSubscribers(t, hub, 1)
	hub.Publish(events.Event{Type: events.TypeMessageCreated, RoomID: "r2"})
	hub.Publish(events.Event{Type: events.TypeRingtone})
	hub.Publish(events.Event{Type: events.TypeMessageCreated, RoomID: "r1"})

	reader := bufio.NewReader(resp.Body)
	var names []string
	for len(names) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			names = append(names, name)
		}
	}
	assert.Equal(t, []string{"status", events.TypeRingtone, events.TypeMessageCreated}, names)
}

func TestWebSocketPushesEventsAndAcceptsSends(t *testing.T) {
	hub := events.NewHub()
	srv := newServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg outgoingMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connected", msg.Type)

	waitForSubscribers(t, hub, 1)
	hub.Publish(events.Event{Type: events.TypeCallTick, RoomID: "r1"})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.TypeCallTick, msg.Type)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: "send", RoomID: "r1", Text: "hi"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "sent", msg.Type)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: "send", RoomID: "missing", Text: "hi"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: "dance"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
}
