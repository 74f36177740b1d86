package match

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/vyne/backend/internal/model/match"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/service/matchflow"
)

type fixedIdentity struct{ id string }

func (f fixedIdentity) CurrentUser() profile.Profile { return profile.Profile{ID: f.id} }

type firstWins struct{}

func (firstWins) Rank(_ context.Context, _ profile.Profile, candidates []profile.Profile) []match.MatchScore {
	out := make([]match.MatchScore, len(candidates))
	for i, c := range candidates {
		out[i] = match.MatchScore{UserID: c.ID, Score: float64(len(candidates) - i), Reasons: []string{}}
	}
	return out
}

func setupRouter() (*chi.Mux, *matchflow.Flow) {
	flow := matchflow.New(profile.NewMemoryStore(profile.Seed()), firstWins{}, nil, matchflow.Config{Timeout: time.Second}, zerolog.Nop())
	r := chi.NewRouter()
	New(flow, fixedIdentity{"u1"}).RegisterRoutes(r)
	return r, flow
}

func TestStartAndReadMatches(t *testing.T) {
	r, flow := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/match", nil))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	flow.Wait()

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/match", nil))

	var got stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Loading {
		t.Fatal("expected settled state")
	}
	if got.RequesterID != "u1" {
		t.Fatalf("expected requester u1, got %s", got.RequesterID)
	}
	if len(got.Matches) != 3 || got.Matches[0].Profile.ID != "u2" {
		t.Fatalf("unexpected matches %+v", got.Matches)
	}
}

func TestStartUnknownRequester(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/match", bytes.NewBufferString(`{"requesterId":"ghost"}`)))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCloseClearsResults(t *testing.T) {
	r, flow := setupRouter()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/match", nil))
	flow.Wait()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/match", nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if len(flow.Resolved()) != 0 {
		t.Fatal("expected results discarded")
	}
}
