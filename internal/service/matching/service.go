// Package matching ranks friend candidates for a profile by consulting the
// oracle, and falls back to a local shaped result when the oracle fails.
package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/model/match"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/oracle"
	"github.com/zhouzirui/vyne/backend/internal/oracle/gemini"
)

// DefaultLimit caps the number of ranked entries returned on success.
const DefaultLimit = 5

// Ranker is what the match flow depends on.
type Ranker interface {
	Rank(ctx context.Context, requester profile.Profile, candidates []profile.Profile) []match.MatchScore
}

// Config controls the ranking service.
type Config struct {
	Limit int
}

// Service runs the ranking chain.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
	limit int
	intn  func(n int) int
	log   zerolog.Logger
}

// NewService compiles the ranking chain. With a nil chatModel every call
// takes the fallback path.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config, logger zerolog.Logger) (*Service, error) {
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	svc := &Service{
		limit: limit,
		intn:  rand.IntN,
		log:   logger.With().Str(logging.FieldComponent, "matching").Logger(),
	}
	if chatModel == nil {
		return svc, nil
	}

	tmpl := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tmpl)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile matching chain: %w", err)
	}
	svc.chain = runnable
	return svc, nil
}

// Enabled reports whether the oracle is consulted.
func (s *Service) Enabled() bool {
	return s != nil && s.chain != nil
}

// Limit returns the maximum number of ranked entries.
func (s *Service) Limit() int {
	return s.limit
}

// Rank returns at most Limit candidates sorted by descending score. It never
// fails: oracle errors produce one fallback entry per candidate.
func (s *Service) Rank(ctx context.Context, requester profile.Profile, candidates []profile.Profile) []match.MatchScore {
	candidates = excluding(candidates, requester.ID)
	if len(candidates) == 0 {
		return []match.MatchScore{}
	}

	res := s.Query(ctx, requester, candidates)
	return res.Or(func(kind oracle.FailureKind, err error) []match.MatchScore {
		if !errors.Is(err, oracle.ErrUnavailable) {
			s.log.Warn().Err(err).
				Str(logging.FieldFailure, string(kind)).
				Str(logging.FieldUserID, requester.ID).
				Int(logging.FieldCount, len(candidates)).
				Msg("ranking fell back")
		}
		return s.Fallback(candidates)
	})
}

// Query performs a single oracle attempt and validates its output against
// candidates.
func (s *Service) Query(ctx context.Context, requester profile.Profile, candidates []profile.Profile) oracle.Result[[]match.MatchScore] {
	if !s.Enabled() {
		return oracle.Err[[]match.MatchScore](oracle.FailureTransport, oracle.ErrUnavailable)
	}

	input, err := s.buildInput(requester, candidates)
	if err != nil {
		return oracle.Err[[]match.MatchScore](oracle.FailureTransport, err)
	}

	msg, err := s.chain.Invoke(ctx, input, compose.WithChatModelOption(gemini.WithResponseSchema(responseSchema)))
	if err != nil {
		return oracle.Err[[]match.MatchScore](oracle.FailureTransport, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return oracle.Err[[]match.MatchScore](oracle.FailureParse, errors.New("empty ranking response"))
	}

	scores, err := parseScores(msg.Content, candidates, s.limit)
	if err != nil {
		return oracle.Err[[]match.MatchScore](oracle.FailureParse, err)
	}
	return oracle.Ok(scores)
}

// Fallback scores every candidate locally with an arbitrary value in [0, 10).
func (s *Service) Fallback(candidates []profile.Profile) []match.MatchScore {
	out := make([]match.MatchScore, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, match.MatchScore{
			UserID:  c.ID,
			Score:   float64(s.intn(10)),
			Reasons: []string{match.FallbackReason},
		})
	}
	sortByScore(out)
	return out
}

type promptProfile struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Bio       string   `json:"bio,omitempty"`
	Country   string   `json:"country"`
	Language  string   `json:"language"`
	Interests []string `json:"interests"`
}

func toPrompt(p profile.Profile) promptProfile {
	return promptProfile{
		ID:        p.ID,
		Username:  p.Username,
		Bio:       p.Bio,
		Country:   p.Country,
		Language:  p.Language,
		Interests: p.Interests,
	}
}

func (s *Service) buildInput(requester profile.Profile, candidates []profile.Profile) (map[string]any, error) {
	me, err := json.Marshal(toPrompt(requester))
	if err != nil {
		return nil, fmt.Errorf("encode requester: %w", err)
	}

	list := make([]promptProfile, len(candidates))
	for i, c := range candidates {
		list[i] = toPrompt(c)
	}
	others, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode candidates: %w", err)
	}

	return map[string]any{
		"requester":  string(me),
		"candidates": string(others),
		"limit":      strconv.Itoa(s.limit),
	}, nil
}

type rawScore struct {
	UserID  string          `json:"userId"`
	Score   json.RawMessage `json:"score"`
	Reasons []any           `json:"reasons"`
}

// parseScores treats the oracle output as untrusted: unknown, duplicate and
// unscored entries are dropped.
func parseScores(content string, candidates []profile.Profile, limit int) ([]match.MatchScore, error) {
	raw, err := oracle.ExtractJSON(content, '[', ']')
	if err != nil {
		return nil, err
	}

	var entries []rawScore
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode ranking: %w", err)
	}

	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(entries))
	out := make([]match.MatchScore, 0, len(entries))
	for _, e := range entries {
		id := strings.TrimSpace(e.UserID)
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		score, ok := parseScore(e.Score)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, match.MatchScore{UserID: id, Score: score, Reasons: reasonStrings(e.Reasons)})
	}

	if len(out) == 0 {
		return nil, errors.New("ranking contained no known candidates")
	}

	sortByScore(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func parseScore(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err != nil {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		if num, err = strconv.ParseFloat(strings.TrimSpace(str), 64); err != nil {
			return 0, false
		}
	}
	// NaN and Inf neither order nor marshal.
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}

func reasonStrings(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func sortByScore(scores []match.MatchScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
}

func excluding(candidates []profile.Profile, id string) []profile.Profile {
	out := make([]profile.Profile, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

var responseSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"userId":  {Type: genai.TypeString},
			"score":   {Type: genai.TypeNumber},
			"reasons": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"userId", "score", "reasons"},
	},
}

const systemPrompt = "You are a matchmaker for a social app called VYNE. Analyze the current user and the candidates to find the best friends.\n" +
	"RULES:\n" +
	"- Same interests (+3 points each)\n" +
	"- Same country (+2 points)\n" +
	"- Same language (+1 point)\n" +
	"Return a JSON array of objects with the fields userId, score and reasons (array of strings explaining the score). " +
	"Only use ids from the candidate list. Sort by score descending. Output nothing but the JSON array."

const userPrompt = "CURRENT USER:\n{requester}\n\nCANDIDATES:\n{candidates}\n\nReturn the top {limit}."
