// Package call simulates a connected voice call: a per-second duration
// counter plus mute and speaker toggles. No media is transported.
package call

import (
	"fmt"
	"sync"
	"time"

	"github.com/zhouzirui/vyne/backend/internal/service/events"
	"github.com/zhouzirui/vyne/backend/internal/service/ticker"
)

// Snapshot is the call overlay state.
type Snapshot struct {
	RoomID    string `json:"roomId"`
	Muted     bool   `json:"muted"`
	SpeakerOn bool   `json:"speakerOn"`
	Seconds   int    `json:"seconds"`
	Elapsed   string `json:"elapsed"`
	Active    bool   `json:"active"`
}

// Call is one active voice call.
type Call struct {
	roomID string
	pub    events.Publisher
	timer  *ticker.Repeater

	mu      sync.Mutex
	muted   bool
	speaker bool
	seconds int
	ended   bool
}

// Start connects a call in roomID. The duration grows by one every tick.
func Start(roomID string, tick time.Duration, pub events.Publisher) *Call {
	if pub == nil {
		pub = events.Discard{}
	}
	c := &Call{roomID: roomID, pub: pub, speaker: true}
	c.timer = ticker.New(tick, func(time.Time) { c.tick() })
	c.timer.Start()
	c.publishState()
	return c
}

func (c *Call) tick() {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	c.seconds++
	secs := c.seconds
	c.mu.Unlock()

	c.pub.Publish(events.Event{
		Type:   events.TypeCallTick,
		RoomID: c.roomID,
		Data:   map[string]any{"seconds": secs, "elapsed": FormatDuration(secs)},
	})
}

// RoomID is the room the call belongs to.
func (c *Call) RoomID() string { return c.roomID }

// ToggleMute flips the microphone and returns the new muted flag.
func (c *Call) ToggleMute() bool {
	c.mu.Lock()
	c.muted = !c.muted
	muted := c.muted
	c.mu.Unlock()

	c.publishState()
	return muted
}

// ToggleSpeaker flips the speaker and returns whether it is now on.
func (c *Call) ToggleSpeaker() bool {
	c.mu.Lock()
	c.speaker = !c.speaker
	on := c.speaker
	c.mu.Unlock()

	c.publishState()
	return on
}

// Duration is the number of whole ticks since the call connected.
func (c *Call) Duration() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seconds
}

// Snapshot returns the overlay state.
func (c *Call) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		RoomID:    c.roomID,
		Muted:     c.muted,
		SpeakerOn: c.speaker,
		Seconds:   c.seconds,
		Elapsed:   FormatDuration(c.seconds),
		Active:    !c.ended,
	}
}

// End stops the duration counter. Ending twice is a no-op.
func (c *Call) End() {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	c.ended = true
	c.mu.Unlock()

	c.timer.Stop()
	c.publishState()
}

func (c *Call) publishState() {
	c.pub.Publish(events.Event{Type: events.TypeCallState, RoomID: c.roomID, Data: c.Snapshot()})
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
