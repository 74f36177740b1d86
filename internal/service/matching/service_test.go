package matching

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/vyne/backend/internal/model/match"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/oracle"
)

type fakeModel struct {
	reply string
	err   error
	calls int
	seen  []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeModel) BindTools([]*schema.ToolInfo) error { return nil }

func newService(t *testing.T, m model.ChatModel) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), m, Config{}, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func directory() (profile.Profile, []profile.Profile) {
	store := profile.NewMemoryStore(profile.Seed())
	me, _ := store.FindByID("u1")
	return me, profile.Others(store, "u1")
}

func assertNonIncreasing(t *testing.T, scores []match.MatchScore) {
	t.Helper()
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].Score, scores[i].Score, "scores must be non-increasing at %d", i)
	}
}

func TestRankSortsAndDropsUnknownIDs(t *testing.T) {
	fake := &fakeModel{reply: `Here you go:
[
  {"userId": "u4", "score": 1, "reasons": ["different everything"]},
  {"userId": "u2", "score": 6, "reasons": ["music", "English"]},
  {"userId": "ghost", "score": 10, "reasons": ["not a candidate"]},
  {"userId": "u3", "score": "3.5", "reasons": ["coding", 7]},
  {"userId": "u2", "score": 9, "reasons": ["duplicate"]}
]`}
	svc := newService(t, fake)
	me, candidates := directory()

	got := svc.Rank(context.Background(), me, candidates)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"u2", "u3", "u4"}, []string{got[0].UserID, got[1].UserID, got[2].UserID})
	assert.Equal(t, 3.5, got[1].Score)
	assert.Equal(t, []string{"coding"}, got[1].Reasons)
	assertNonIncreasing(t, got)

	require.NotEmpty(t, fake.seen)
	user := fake.seen[len(fake.seen)-1].Content
	assert.Contains(t, user, `"id":"u1"`)
	assert.Contains(t, user, `"id":"u4"`)
	assert.Contains(t, user, "top 5")
}

func TestRankDropsNonFiniteScores(t *testing.T) {
	fake := &fakeModel{reply: `[
  {"userId": "u2", "score": 1, "reasons": []},
  {"userId": "u3", "score": "NaN", "reasons": []},
  {"userId": "u4", "score": 5, "reasons": []}
]`}
	me, candidates := directory()

	got := newService(t, fake).Rank(context.Background(), me, candidates)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"u4", "u2"}, []string{got[0].UserID, got[1].UserID})
	assertNonIncreasing(t, got)

	_, err := json.Marshal(got)
	require.NoError(t, err)
}

func TestParseScoreRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{`"NaN"`, `"Inf"`, `"-Inf"`, `"+Infinity"`} {
		_, ok := parseScore(json.RawMessage(raw))
		assert.False(t, ok, raw)
	}

	got, ok := parseScore(json.RawMessage(`" 7.5 "`))
	require.True(t, ok)
	assert.Equal(t, 7.5, got)
}

func TestRankNeverReturnsMoreThanLimit(t *testing.T) {
	me := profile.Profile{ID: "me"}
	var candidates []profile.Profile
	reply := "["
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		candidates = append(candidates, profile.Profile{ID: id})
		if i > 0 {
			reply += ","
		}
		reply += `{"userId":"` + id + `","score":` + string(rune('0'+i)) + `,"reasons":[]}`
	}
	reply += "]"

	svc := newService(t, &fakeModel{reply: reply})
	got := svc.Rank(context.Background(), me, candidates)

	require.Equal(t, DefaultLimit, svc.Limit())
	require.Len(t, got, DefaultLimit)
	assert.Equal(t, "h", got[0].UserID)
	assertNonIncreasing(t, got)
}

func TestRankFallbackShape(t *testing.T) {
	cases := map[string]*fakeModel{
		"transport":      {err: errors.New("503 from upstream")},
		"prose":          {reply: "I cannot help with that"},
		"malformed":      {reply: `[{"userId": "u2", "score": }]`},
		"all unknown":    {reply: `[{"userId": "zz", "score": 5, "reasons": []}]`},
		"empty array":    {reply: `[]`},
		"object payload": {reply: `{"userId": "u2"}`},
	}

	me, candidates := directory()
	for name, fake := range cases {
		t.Run(name, func(t *testing.T) {
			got := newService(t, fake).Rank(context.Background(), me, candidates)

			require.Len(t, got, len(candidates))
			seen := map[string]int{}
			for _, s := range got {
				seen[s.UserID]++
				assert.True(t, s.IsFallback())
				assert.GreaterOrEqual(t, s.Score, 0.0)
				assert.Less(t, s.Score, 10.0)
			}
			for _, c := range candidates {
				assert.Equal(t, 1, seen[c.ID], "candidate %s must appear exactly once", c.ID)
			}
		})
	}
}

func TestRankWithoutModelFallsBack(t *testing.T) {
	svc := newService(t, nil)
	assert.False(t, svc.Enabled())

	me, candidates := directory()
	got := svc.Rank(context.Background(), me, candidates)
	require.Len(t, got, len(candidates))
	assertNonIncreasing(t, got)
}

func TestRankEmptyCandidatesSkipsOracle(t *testing.T) {
	fake := &fakeModel{reply: `[]`}
	svc := newService(t, fake)
	me, _ := directory()

	got := svc.Rank(context.Background(), me, nil)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got = svc.Rank(context.Background(), me, []profile.Profile{me})
	assert.Empty(t, got)
	assert.Zero(t, fake.calls)
}

func TestQueryFailureKinds(t *testing.T) {
	me, candidates := directory()

	res := newService(t, &fakeModel{err: errors.New("boom")}).Query(context.Background(), me, candidates)
	kind, err := res.Failure()
	assert.Equal(t, oracle.FailureTransport, kind)
	assert.Error(t, err)

	res = newService(t, &fakeModel{reply: "nah"}).Query(context.Background(), me, candidates)
	kind, _ = res.Failure()
	assert.Equal(t, oracle.FailureParse, kind)
}

func TestFallbackUsesInjectedScores(t *testing.T) {
	svc := newService(t, nil)
	next := 0
	svc.intn = func(n int) int {
		next++
		return next % n
	}

	got := svc.Fallback([]profile.Profile{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	assert.Equal(t, []string{"c", "b", "a"}, []string{got[0].UserID, got[1].UserID, got[2].UserID})
	assert.Equal(t, 3.0, got[0].Score)
}
