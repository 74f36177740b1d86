// Package matchflow drives the ranking adapter for the match screen: it
// derives the candidate set, tracks the loading flag and keeps only the most
// recent request's results.
package matchflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/model/match"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/service/events"
	"github.com/zhouzirui/vyne/backend/internal/service/matching"
)

var ErrUnknownRequester = errors.New("requester profile not found")

// State is what the match screen renders.
type State struct {
	Loading     bool               `json:"loading"`
	RequesterID string             `json:"requesterId,omitempty"`
	Results     []match.MatchScore `json:"results"`
	StartedAt   time.Time          `json:"startedAt,omitzero"`
	SettledAt   time.Time          `json:"settledAt,omitzero"`
}

// Match pairs a ranked entry with the candidate's profile.
type Match struct {
	Profile profile.Profile `json:"profile"`
	Score   float64         `json:"score"`
	Reasons []string        `json:"reasons"`
}

// Config bounds each ranking request.
type Config struct {
	Timeout time.Duration
}

// Flow owns the transient match results of one session.
type Flow struct {
	profiles profile.Store
	ranker   matching.Ranker
	pub      events.Publisher
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time

	group    singleflight.Group
	inflight sync.WaitGroup

	mu    sync.Mutex
	gen   uint64
	state State
}

// New returns an idle flow.
func New(profiles profile.Store, ranker matching.Ranker, pub events.Publisher, cfg Config, logger zerolog.Logger) *Flow {
	if pub == nil {
		pub = events.Discard{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Flow{
		profiles: profiles,
		ranker:   ranker,
		pub:      pub,
		timeout:  timeout,
		log:      logger.With().Str(logging.FieldComponent, "matchflow").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start ranks every other profile for requesterID in the background. A newer
// Start supersedes any request still in flight.
func (f *Flow) Start(ctx context.Context, requesterID string) (State, error) {
	requester, ok := f.profiles.FindByID(requesterID)
	if !ok {
		return State{}, ErrUnknownRequester
	}
	candidates := profile.Others(f.profiles, requesterID)

	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.state = State{
		Loading:     true,
		RequesterID: requesterID,
		StartedAt:   f.now(),
	}
	snapshot := f.state
	f.mu.Unlock()

	f.inflight.Add(1)
	go f.run(context.WithoutCancel(ctx), gen, requester, candidates)

	return snapshot, nil
}

func (f *Flow) run(ctx context.Context, gen uint64, requester profile.Profile, candidates []profile.Profile) {
	defer f.inflight.Done()

	v, _, shared := f.group.Do(requestKey(requester, candidates), func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		return f.ranker.Rank(ctx, requester, candidates), nil
	})
	scores, _ := v.([]match.MatchScore)

	l := f.log.With().Str(logging.FieldUserID, requester.ID).Int(logging.FieldCount, len(scores)).Logger()
	if !f.settle(gen, cloneScores(scores)) {
		l.Debug().Msg("stale match result discarded")
		return
	}
	l.Info().Bool("shared", shared).Msg("match results settled")
}

// settle stores scores if gen is still the latest request.
func (f *Flow) settle(gen uint64, scores []match.MatchScore) bool {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return false
	}
	f.state.Loading = false
	f.state.Results = scores
	f.state.SettledAt = f.now()
	snapshot := cloneState(f.state)
	f.mu.Unlock()

	f.pub.Publish(events.Event{Type: events.TypeMatchSettled, Data: snapshot})
	return true
}

// State returns the current loading flag and results.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneState(f.state)
}

// Resolved joins the settled results with the profile directory. Entries
// whose candidate no longer exists are skipped.
func (f *Flow) Resolved() []Match {
	state := f.State()

	out := make([]Match, 0, len(state.Results))
	for _, score := range state.Results {
		p, ok := f.profiles.FindByID(score.UserID)
		if !ok {
			continue
		}
		out = append(out, Match{Profile: p, Score: score.Score, Reasons: score.Reasons})
	}
	return out
}

// Close discards the results and any request still in flight.
func (f *Flow) Close() {
	f.mu.Lock()
	f.gen++
	f.state = State{}
	f.mu.Unlock()
}

// Wait blocks until background ranking requests have returned.
func (f *Flow) Wait() {
	f.inflight.Wait()
}

func requestKey(requester profile.Profile, candidates []profile.Profile) string {
	var b strings.Builder
	b.WriteString(requester.ID)
	for _, c := range candidates {
		b.WriteByte('|')
		b.WriteString(c.ID)
	}
	return b.String()
}

func cloneState(s State) State {
	s.Results = cloneScores(s.Results)
	return s
}

func cloneScores(in []match.MatchScore) []match.MatchScore {
	if in == nil {
		return nil
	}
	out := make([]match.MatchScore, len(in))
	for i, sc := range in {
		sc.Reasons = append([]string(nil), sc.Reasons...)
		out[i] = sc
	}
	return out
}
