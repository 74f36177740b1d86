// Package session is the application state container of one signed-in
// user: active room, current view, the dial pad, and the call lifecycle
// (incoming ringtone, connected call timer).
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/model/room"
	"github.com/zhouzirui/vyne/backend/internal/service/call"
	"github.com/zhouzirui/vyne/backend/internal/service/dialpad"
	"github.com/zhouzirui/vyne/backend/internal/service/events"
)

var (
	ErrInvalidCode     = errors.New("invalid or expired room code")
	ErrInvalidView     = errors.New("unknown view")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNoIncomingCall  = errors.New("no incoming call")
	ErrNoActiveCall    = errors.New("no active call")
	ErrUnknownUser     = errors.New("current user not in directory")
	ErrNotEnoughPeople = errors.New("directory needs at least two profiles and one room")
)

// View is the main panel being shown.
type View string

const (
	ViewChat  View = "chat"
	ViewMatch View = "match"
	ViewJoin  View = "join"
	ViewAdmin View = "admin"
)

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	switch v {
	case ViewChat, ViewMatch, ViewJoin, ViewAdmin:
		return true
	default:
		return false
	}
}

// Ringer plays the incoming call ringtone.
type Ringer interface {
	StartRingtone()
	StopRingtone()
	Ringing() bool
}

// RoomLeaver drops the loaded messages of a room the user navigated away from.
type RoomLeaver interface {
	Discard(roomID string)
}

// Recorder receives audit log lines.
type Recorder interface {
	Record(level, text string)
}

// IncomingCall is a call waiting to be accepted or declined.
type IncomingCall struct {
	Caller profile.Profile `json:"caller"`
	Room   room.Room       `json:"room"`
}

// Snapshot is the whole session as rendered.
type Snapshot struct {
	CurrentUser  profile.Profile `json:"currentUser"`
	Rooms        []room.Room     `json:"rooms"`
	ActiveRoomID string          `json:"activeRoomId"`
	View         View            `json:"view"`
	Incoming     *IncomingCall   `json:"incomingCall,omitempty"`
	Ringing      bool            `json:"ringing"`
	Call         *call.Snapshot  `json:"call,omitempty"`
	Dialpad      dialpad.State   `json:"dialpad"`
}

// Config selects the signed-in user and the call timer period.
type Config struct {
	CurrentUserID string
	CallTick      time.Duration
}

// Deps are the collaborators a session drives. Leaver and Recorder may be nil.
type Deps struct {
	Profiles  profile.Store
	Rooms     room.Store
	Ringer    Ringer
	Publisher events.Publisher
	Leaver    RoomLeaver
	Recorder  Recorder
}

// Session owns the timers it starts and must be closed.
type Session struct {
	deps     Deps
	callTick time.Duration
	log      zerolog.Logger
	pad      *dialpad.Pad

	mu       sync.Mutex
	userID   string
	activeID string
	view     View
	incoming *IncomingCall
	active   *call.Call
}

// New opens a session on the first room in chat view.
func New(cfg Config, deps Deps, logger zerolog.Logger) (*Session, error) {
	if deps.Publisher == nil {
		deps.Publisher = events.Discard{}
	}
	if _, ok := deps.Profiles.FindByID(cfg.CurrentUserID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, cfg.CurrentUserID)
	}
	rooms := deps.Rooms.List()
	if len(rooms) == 0 || len(deps.Profiles.List()) < 2 {
		return nil, ErrNotEnoughPeople
	}

	return &Session{
		deps:     deps,
		callTick: cfg.CallTick,
		log:      logger.With().Str(logging.FieldComponent, "session").Str(logging.FieldUserID, cfg.CurrentUserID).Logger(),
		pad:      dialpad.New(),
		userID:   cfg.CurrentUserID,
		activeID: rooms[0].ID,
		view:     ViewChat,
	}, nil
}

// CurrentUser returns the signed-in profile.
func (s *Session) CurrentUser() profile.Profile {
	p, _ := s.deps.Profiles.FindByID(s.userID)
	return p
}

// SelectRoom makes roomID active and switches to the chat view.
func (s *Session) SelectRoom(roomID string) error {
	if _, ok := s.deps.Rooms.FindByID(roomID); !ok {
		return ErrRoomNotFound
	}

	s.mu.Lock()
	previous := s.selectLocked(roomID)
	s.mu.Unlock()

	s.leave(previous, roomID)
	return nil
}

func (s *Session) selectLocked(roomID string) string {
	previous := s.activeID
	s.activeID = roomID
	s.view = ViewChat
	return previous
}

func (s *Session) leave(previous, current string) {
	if s.deps.Leaver != nil && previous != "" && previous != current {
		s.deps.Leaver.Discard(previous)
	}
}

// SetView switches the main panel.
func (s *Session) SetView(v View) error {
	if !v.Valid() {
		return ErrInvalidView
	}
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	return nil
}

// JoinByCode adds the user to the private room matching code and selects it.
func (s *Session) JoinByCode(code string) (room.Room, error) {
	r, ok := s.deps.Rooms.FindByAccessCode(code)
	if !ok {
		s.record("WARN", "Failed room code attempt by user "+s.userID)
		return room.Room{}, ErrInvalidCode
	}

	joined, err := s.deps.Rooms.AddMember(r.ID, s.userID)
	if err != nil {
		return room.Room{}, err
	}
	if err := s.SelectRoom(joined.ID); err != nil {
		return room.Room{}, err
	}

	s.record("INFO", fmt.Sprintf("User %s joined room %s", s.userID, joined.ID))
	return joined.Public(), nil
}

// PressKey forwards to the dial pad.
func (s *Session) PressKey(key string) (dialpad.State, error) {
	return s.pad.Press(key)
}

// DeleteKey forwards to the dial pad.
func (s *Session) DeleteKey() dialpad.State {
	return s.pad.Delete()
}

// SubmitCode joins with the code typed on the dial pad.
func (s *Session) SubmitCode() (dialpad.State, error) {
	return s.pad.Submit(func(code string) error {
		_, err := s.JoinByCode(code)
		return err
	})
}

// SimulateIncomingCall rings the user with a call from the second profile in
// the first room.
func (s *Session) SimulateIncomingCall() (IncomingCall, error) {
	profiles := s.deps.Profiles.List()
	rooms := s.deps.Rooms.List()
	if len(profiles) < 2 || len(rooms) == 0 {
		return IncomingCall{}, ErrNotEnoughPeople
	}
	incoming := IncomingCall{Caller: profiles[1], Room: rooms[0].Public()}

	s.mu.Lock()
	s.incoming = &incoming
	s.mu.Unlock()

	s.deps.Ringer.StartRingtone()
	s.log.Info().Str("caller", incoming.Caller.ID).Str(logging.FieldRoomID, incoming.Room.ID).Msg("incoming call")
	return incoming, nil
}

// AcceptCall silences the ringtone, connects the call and selects its room.
func (s *Session) AcceptCall() (call.Snapshot, error) {
	s.mu.Lock()
	incoming := s.incoming
	if incoming == nil {
		s.mu.Unlock()
		return call.Snapshot{}, ErrNoIncomingCall
	}
	s.incoming = nil
	previousCall := s.active
	s.active = call.Start(incoming.Room.ID, s.callTick, s.deps.Publisher)
	snap := s.active.Snapshot()
	previousRoom := s.selectLocked(incoming.Room.ID)
	s.mu.Unlock()

	s.deps.Ringer.StopRingtone()
	if previousCall != nil {
		previousCall.End()
	}
	s.leave(previousRoom, incoming.Room.ID)
	return snap, nil
}

// DeclineCall silences the ringtone and forgets the incoming call.
func (s *Session) DeclineCall() error {
	s.mu.Lock()
	if s.incoming == nil {
		s.mu.Unlock()
		return ErrNoIncomingCall
	}
	s.incoming = nil
	s.mu.Unlock()

	s.deps.Ringer.StopRingtone()
	return nil
}

// StartCall connects a call in the active room. A call already running there
// is kept.
func (s *Session) StartCall() (call.Snapshot, error) {
	s.mu.Lock()
	if s.active != nil && s.active.RoomID() == s.activeID {
		snap := s.active.Snapshot()
		s.mu.Unlock()
		return snap, nil
	}
	previous := s.active
	s.active = call.Start(s.activeID, s.callTick, s.deps.Publisher)
	snap := s.active.Snapshot()
	s.mu.Unlock()

	if previous != nil {
		previous.End()
	}
	return snap, nil
}

// EndCall hangs up the active call.
func (s *Session) EndCall() (call.Snapshot, error) {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active == nil {
		return call.Snapshot{}, ErrNoActiveCall
	}
	active.End()
	return active.Snapshot(), nil
}

// ToggleMute flips the microphone of the active call.
func (s *Session) ToggleMute() (call.Snapshot, error) {
	active := s.activeCall()
	if active == nil {
		return call.Snapshot{}, ErrNoActiveCall
	}
	active.ToggleMute()
	return active.Snapshot(), nil
}

// ToggleSpeaker flips the speaker of the active call.
func (s *Session) ToggleSpeaker() (call.Snapshot, error) {
	active := s.activeCall()
	if active == nil {
		return call.Snapshot{}, ErrNoActiveCall
	}
	active.ToggleSpeaker()
	return active.Snapshot(), nil
}

// Call returns the active call state.
func (s *Session) Call() (call.Snapshot, bool) {
	active := s.activeCall()
	if active == nil {
		return call.Snapshot{}, false
	}
	return active.Snapshot(), true
}

func (s *Session) activeCall() *call.Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Snapshot returns the session state.
func (s *Session) Snapshot() Snapshot {
	all := s.deps.Rooms.List()
	rooms := make([]room.Room, len(all))
	for i, r := range all {
		rooms[i] = r.Public()
	}

	s.mu.Lock()
	snap := Snapshot{
		CurrentUser:  s.CurrentUser(),
		Rooms:        rooms,
		ActiveRoomID: s.activeID,
		View:         s.view,
		Dialpad:      s.pad.State(),
	}
	if s.incoming != nil {
		in := *s.incoming
		snap.Incoming = &in
	}
	active := s.active
	s.mu.Unlock()

	snap.Ringing = s.deps.Ringer.Ringing()
	if active != nil {
		cs := active.Snapshot()
		snap.Call = &cs
	}
	return snap
}

// Close stops the ringtone and the call timer.
func (s *Session) Close() {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.incoming = nil
	s.mu.Unlock()

	s.deps.Ringer.StopRingtone()
	if active != nil {
		active.End()
	}
}

func (s *Session) record(level, text string) {
	if s.deps.Recorder != nil {
		s.deps.Recorder.Record(level, text)
	}
}
