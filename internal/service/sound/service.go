// Package sound emits the audio cues the client plays: a one-shot
// notification ping and a looping ringtone.
package sound

import (
	"time"

	"github.com/zhouzirui/vyne/backend/internal/service/events"
	"github.com/zhouzirui/vyne/backend/internal/service/ticker"
)

// Asset URLs the client resolves for each cue.
const (
	NotificationURL = "https://cdn.pixabay.com/audio/2022/10/14/audio_9939713c8b.mp3"
	RingtoneURL     = "https://cdn.pixabay.com/audio/2024/02/09/audio_f535123d24.mp3"
)

// Cue is the payload of a sound event.
type Cue struct {
	URL  string `json:"url"`
	Loop bool   `json:"loop,omitempty"`
}

// Service owns the ringtone timer.
type Service struct {
	pub      events.Publisher
	ringtone *ticker.Repeater
}

// NewService wires the cues to pub. The ringtone repeats every ringInterval.
func NewService(pub events.Publisher, ringInterval time.Duration) *Service {
	if pub == nil {
		pub = events.Discard{}
	}
	s := &Service{pub: pub}
	s.ringtone = ticker.New(ringInterval, func(time.Time) { s.ring() })
	return s
}

// PlayNotification emits a single notification ping for roomID.
func (s *Service) PlayNotification(roomID string) {
	s.pub.Publish(events.Event{
		Type:   events.TypeNotification,
		RoomID: roomID,
		Data:   Cue{URL: NotificationURL},
	})
}

// StartRingtone rings immediately and then on every interval until
// StopRingtone. Starting an active ringtone does nothing.
func (s *Service) StartRingtone() {
	if s.ringtone.Start() {
		s.ring()
	}
}

// StopRingtone silences the ringtone.
func (s *Service) StopRingtone() {
	s.ringtone.Stop()
}

// Ringing reports whether the ringtone timer is active.
func (s *Service) Ringing() bool {
	return s.ringtone.Running()
}

func (s *Service) ring() {
	s.pub.Publish(events.Event{
		Type: events.TypeRingtone,
		Data: Cue{URL: RingtoneURL, Loop: true},
	})
}
