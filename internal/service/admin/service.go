// Package admin builds the moderation dashboard: live counters, a bounded
// audit log fed from the event hub, and the blocked-message reports.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/zhouzirui/vyne/backend/internal/model/chat"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/model/room"
	chatsvc "github.com/zhouzirui/vyne/backend/internal/service/chat"
	"github.com/zhouzirui/vyne/backend/internal/service/events"
)

var ErrForbidden = errors.New("admin dashboard requires a moderator role")

// Log levels shown in the audit log.
const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelAI   = "AI"
	LevelSys  = "SYS"
)

const defaultLogSize = 50

// Stat is one dashboard counter.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LogEntry is one audit log line.
type LogEntry struct {
	Time  time.Time `json:"time"`
	Level string    `json:"level"`
	Text  string    `json:"text"`
}

// Dashboard is the full admin view.
type Dashboard struct {
	Stats   []Stat           `json:"stats"`
	Logs    []LogEntry       `json:"logs"`
	Reports []chatsvc.Report `json:"reports"`
}

// ReportSource yields blocked messages.
type ReportSource interface {
	Blocked() []chatsvc.Report
}

// Service assembles dashboards.
type Service struct {
	profiles profile.Store
	rooms    room.Store
	reports  ReportSource
	started  time.Time
	now      func() time.Time

	mu      sync.Mutex
	logs    []LogEntry
	logSize int
}

// NewService starts the uptime clock.
func NewService(profiles profile.Store, rooms room.Store, reports ReportSource) *Service {
	now := func() time.Time { return time.Now().UTC() }
	return &Service{
		profiles: profiles,
		rooms:    rooms,
		reports:  reports,
		started:  now(),
		now:      now,
		logSize:  defaultLogSize,
	}
}

// Record appends an audit log line, evicting the oldest past the cap.
func (s *Service) Record(level, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, LogEntry{Time: s.now(), Level: level, Text: text})
	if over := len(s.logs) - s.logSize; over > 0 {
		s.logs = append([]LogEntry(nil), s.logs[over:]...)
	}
}

// Run turns hub events into audit log lines until ctx is done or events
// is closed.
func (s *Service) Run(ctx context.Context, evts <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-evts:
			if !ok {
				return
			}
			s.observe(evt)
		}
	}
}

func (s *Service) observe(evt events.Event) {
	switch evt.Type {
	case events.TypeMessageRedacted:
		if msg, ok := evt.Data.(chat.Message); ok {
			s.Record(LevelAI, fmt.Sprintf("Oracle auto-flagged message %s from %s in room %s", msg.ID, msg.SenderID, msg.RoomID))
		}
	case events.TypeMatchSettled:
		s.Record(LevelInfo, "Match results settled")
	}
}

// Dashboard returns the dashboard for viewer.
func (s *Service) Dashboard(viewer profile.Profile) (Dashboard, error) {
	if !viewer.Role.CanModerate() {
		return Dashboard{}, ErrForbidden
	}

	private := 0
	for _, r := range s.rooms.List() {
		if r.IsPrivate {
			private++
		}
	}

	var reports []chatsvc.Report
	if s.reports != nil {
		reports = s.reports.Blocked()
	}
	if reports == nil {
		reports = []chatsvc.Report{}
	}

	uptime := s.now().Sub(s.started).Round(time.Second)

	s.mu.Lock()
	logs := make([]LogEntry, len(s.logs))
	for i, l := range s.logs {
		logs[len(s.logs)-1-i] = l
	}
	s.mu.Unlock()

	return Dashboard{
		Stats: []Stat{
			{Label: "Active Users", Value: strconv.Itoa(len(s.profiles.List()))},
			{Label: "Private Rooms", Value: strconv.Itoa(private)},
			{Label: "Reports", Value: strconv.Itoa(len(reports))},
			{Label: "Uptime", Value: uptime.String()},
		},
		Logs:    logs,
		Reports: reports,
	}, nil
}
