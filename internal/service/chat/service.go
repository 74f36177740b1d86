// Package chat keeps per-room message sequences. Sent messages are visible at
// once and moderated in the background; flagged ones are redacted in place.
package chat

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/model/chat"
	"github.com/zhouzirui/vyne/backend/internal/model/room"
	"github.com/zhouzirui/vyne/backend/internal/service/events"
	"github.com/zhouzirui/vyne/backend/internal/service/moderation"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotMember    = errors.New("sender is not a member of the private room")
	ErrNoPeers      = errors.New("room has no other members")
)

// Notifier plays the incoming-message cue.
type Notifier interface {
	PlayNotification(roomID string)
}

// Report records a message blocked by moderation.
type Report struct {
	MessageID string    `json:"messageId"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"blockedAt"`
}

// Config tunes the send pipeline.
type Config struct {
	ModerationTimeout time.Duration
}

// Service owns the message sequence of every room and runs the optimistic
// send followed by an asynchronous moderation check.
type Service struct {
	rooms     room.Store
	moderator moderation.Checker
	notifier  Notifier
	pub       events.Publisher
	timeout   time.Duration
	log       zerolog.Logger

	now   func() time.Time
	newID func() string
	intn  func(n int) int

	mu       sync.RWMutex
	messages map[string][]chat.Message
	reports  []Report

	inflight sync.WaitGroup
}

// NewService wires the pipeline. notifier and pub may be nil.
func NewService(rooms room.Store, moderator moderation.Checker, notifier Notifier, pub events.Publisher, cfg Config, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Discard{}
	}
	timeout := cfg.ModerationTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Service{
		rooms:     rooms,
		moderator: moderator,
		notifier:  notifier,
		pub:       pub,
		timeout:   timeout,
		log:       logger.With().Str(logging.FieldComponent, "chat").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return ulid.Make().String() },
		intn:      rand.IntN,
		messages:  make(map[string][]chat.Message),
	}
}

// Send appends text to the room immediately and schedules one moderation
// check. Whitespace-only text is ignored and reports sent=false.
func (s *Service) Send(ctx context.Context, roomID, senderID, text string) (chat.Message, bool, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, false, nil
	}

	r, ok := s.rooms.FindByID(roomID)
	if !ok {
		return chat.Message{}, false, ErrRoomNotFound
	}
	if r.IsPrivate && !r.HasMember(senderID) {
		return chat.Message{}, false, ErrNotMember
	}

	msg := chat.Message{
		ID:        s.newID(),
		RoomID:    roomID,
		SenderID:  senderID,
		Kind:      chat.KindText,
		Content:   text,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.ensureSeededLocked(r)
	s.messages[roomID] = append(s.messages[roomID], msg)
	s.mu.Unlock()

	s.pub.Publish(events.Event{Type: events.TypeMessageCreated, RoomID: roomID, Data: msg})

	if s.moderator != nil {
		s.inflight.Add(1)
		go s.moderate(context.WithoutCancel(ctx), roomID, msg.ID, text)
	}

	return msg, true, nil
}

func (s *Service) moderate(ctx context.Context, roomID, messageID, text string) {
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	verdict := s.moderator.Check(ctx, text)
	if verdict.Safe {
		return
	}
	if !s.ApplyVerdict(roomID, messageID, verdict) {
		s.log.Debug().
			Str(logging.FieldRoomID, roomID).
			Str(logging.FieldMessageID, messageID).
			Msg("moderation verdict dropped, message no longer present")
	}
}

// ApplyVerdict redacts the message identified by messageID when verdict is
// unsafe. It returns false when nothing changed, including when the message
// is gone.
func (s *Service) ApplyVerdict(roomID, messageID string, verdict moderation.Verdict) bool {
	if verdict.Safe {
		return false
	}
	reason := verdict.Reason
	if reason == "" {
		reason = moderation.DefaultReason
	}

	s.mu.Lock()
	seq, ok := s.messages[roomID]
	idx := -1
	if ok {
		for i := range seq {
			if seq[i].ID == messageID {
				idx = i
				break
			}
		}
	}
	if idx < 0 || seq[idx].Redacted {
		s.mu.Unlock()
		return false
	}

	seq[idx].Content = chat.RedactionMarker(reason)
	seq[idx].Redacted = true
	updated := seq[idx]
	s.reports = append(s.reports, Report{
		MessageID: updated.ID,
		RoomID:    roomID,
		SenderID:  updated.SenderID,
		Reason:    reason,
		BlockedAt: s.now(),
	})
	s.mu.Unlock()

	s.log.Info().
		Str(logging.FieldRoomID, roomID).
		Str(logging.FieldMessageID, messageID).
		Str("reason", reason).
		Msg("message blocked")
	s.pub.Publish(events.Event{Type: events.TypeMessageRedacted, RoomID: roomID, Data: updated})
	return true
}

// Messages returns the room's sequence in append order.
func (s *Service) Messages(roomID string) ([]chat.Message, error) {
	r, ok := s.rooms.FindByID(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureSeededLocked(r)
	seq := s.messages[roomID]
	out := make([]chat.Message, len(seq))
	copy(out, seq)
	return out, nil
}

// Message looks up a single message by identity.
func (s *Service) Message(roomID, messageID string) (chat.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages[roomID] {
		if m.ID == messageID {
			return m, true
		}
	}
	return chat.Message{}, false
}

// Discard drops the room's loaded sequence, as when the client leaves the
// room. Pending verdicts for its messages are then ignored.
func (s *Service) Discard(roomID string) {
	s.mu.Lock()
	delete(s.messages, roomID)
	s.mu.Unlock()
}

var cannedReplies = []string{
	"That's interesting, tell me more!",
	"I agree with that point.",
	"Wait, what happened next?",
	"Checking the logs now.",
	"Vyne is looking smooth today!",
}

// SimulateIncoming appends a canned reply from another member of the room
// and plays the notification cue.
func (s *Service) SimulateIncoming(roomID, currentUserID string) (chat.Message, error) {
	r, ok := s.rooms.FindByID(roomID)
	if !ok {
		return chat.Message{}, ErrRoomNotFound
	}

	others := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		if m != currentUserID {
			others = append(others, m)
		}
	}
	if len(others) == 0 {
		return chat.Message{}, ErrNoPeers
	}

	msg := chat.Message{
		ID:        s.newID(),
		RoomID:    roomID,
		SenderID:  others[s.intn(len(others))],
		Kind:      chat.KindText,
		Content:   cannedReplies[s.intn(len(cannedReplies))],
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.ensureSeededLocked(r)
	s.messages[roomID] = append(s.messages[roomID], msg)
	s.mu.Unlock()

	s.pub.Publish(events.Event{Type: events.TypeMessageCreated, RoomID: roomID, Data: msg})
	if s.notifier != nil {
		s.notifier.PlayNotification(roomID)
	}
	return msg, nil
}

// Blocked returns the blocked-message reports, newest first.
func (s *Service) Blocked() []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Report, len(s.reports))
	for i, r := range s.reports {
		out[len(s.reports)-1-i] = r
	}
	return out
}

// Wait blocks until every in-flight moderation check has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) ensureSeededLocked(r room.Room) {
	if _, ok := s.messages[r.ID]; ok {
		return
	}

	senders := welcomeSenders(r)
	if len(senders) == 0 {
		s.messages[r.ID] = nil
		return
	}

	now := s.now()
	s.messages[r.ID] = []chat.Message{
		{
			ID:        r.ID + "-m1",
			RoomID:    r.ID,
			SenderID:  senders[0],
			Kind:      chat.KindText,
			Content:   "Hey everyone, welcome to the room!",
			CreatedAt: now.Add(-time.Hour),
		},
		{
			ID:        r.ID + "-m2",
			RoomID:    r.ID,
			SenderID:  senders[1%len(senders)],
			Kind:      chat.KindText,
			Content:   "Testing out the new encryption.",
			CreatedAt: now.Add(-30 * time.Minute),
		},
	}
}

// welcomeSenders lists the room's members with the creator moved last.
func welcomeSenders(r room.Room) []string {
	out := make([]string, 0, len(r.Members)+1)
	for _, m := range r.Members {
		if m != "" && m != r.CreatedBy {
			out = append(out, m)
		}
	}
	if r.CreatedBy != "" {
		out = append(out, r.CreatedBy)
	}
	return out
}
