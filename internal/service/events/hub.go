// Package events fans session changes out to the connected presentation
// clients (SSE and websocket).
package events

import (
	"sync"
	"time"
)

const (
	TypeMessageCreated  = "message.created"
	TypeMessageRedacted = "message.redacted"
	TypeNotification    = "sound.notification"
	TypeRingtone        = "sound.ringtone"
	TypeCallTick        = "call.tick"
	TypeCallState       = "call.state"
	TypeMatchSettled    = "match.settled"
)

// Event is a single change pushed to subscribers.
type Event struct {
	Type      string    `json:"type"`
	RoomID    string    `json:"roomId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is the write side of the hub used by services.
type Publisher interface {
	Publish(evt Event)
}

// Hub broadcasts events to every subscriber. A subscriber whose buffer is
// full misses the event; publishers never block.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Publish delivers evt to all current subscribers.
func (h *Hub) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func closes the
// channel and is safe to call more than once.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(Event) {}
