package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/model/room"
	"github.com/zhouzirui/vyne/backend/internal/service/admin"
	"github.com/zhouzirui/vyne/backend/internal/service/call"
	"github.com/zhouzirui/vyne/backend/internal/service/dialpad"
	"github.com/zhouzirui/vyne/backend/internal/service/session"
	"github.com/zhouzirui/vyne/backend/internal/service/sound"
)

func setupRouter(t *testing.T, userID string) *chi.Mux {
	t.Helper()

	profiles := profile.NewMemoryStore(profile.Seed())
	rooms, err := room.NewMemoryStore(room.Seed())
	if err != nil {
		t.Fatalf("rooms: %v", err)
	}
	adminSvc := admin.NewService(profiles, rooms, nil)
	sess, err := session.New(session.Config{CurrentUserID: userID, CallTick: time.Hour}, session.Deps{
		Profiles: profiles,
		Rooms:    rooms,
		Ringer:   sound.NewService(nil, time.Hour),
		Recorder: adminSvc,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(sess.Close)

	r := chi.NewRouter()
	New(sess, adminSvc).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSnapshotAndNavigation(t *testing.T) {
	r := setupRouter(t, "u1")

	resp := do(r, http.MethodPost, "/session/rooms/r3/select", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var snap session.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ActiveRoomID != "r3" {
		t.Fatalf("expected r3 active, got %s", snap.ActiveRoomID)
	}

	if resp := do(r, http.MethodPost, "/session/view", `{"view":"match"}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := do(r, http.MethodPost, "/session/view", `{"view":"nowhere"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if resp := do(r, http.MethodPost, "/session/rooms/zz/select", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDialpadFlow(t *testing.T) {
	r := setupRouter(t, "u2")

	for _, k := range []string{"1", "2", "3", "4"} {
		if resp := do(r, http.MethodPost, "/join/press", `{"key":"`+k+`"}`); resp.Code != http.StatusOK {
			t.Fatalf("press %s: expected 200, got %d", k, resp.Code)
		}
	}
	if resp := do(r, http.MethodPost, "/join/press", `{"key":"x"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp := do(r, http.MethodPost, "/join/submit", "")
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	var state dialpad.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Error != dialpad.RejectedMessage || state.Code != "" {
		t.Fatalf("unexpected state %+v", state)
	}

	if resp := do(r, http.MethodPost, "/join", `{"code":"*1337#"}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestCallLifecycle(t *testing.T) {
	r := setupRouter(t, "u1")

	if resp := do(r, http.MethodGet, "/calls", ""); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 without a call, got %d", resp.Code)
	}
	if resp := do(r, http.MethodPost, "/calls/incoming", ""); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	resp := do(r, http.MethodPost, "/calls/accept", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = do(r, http.MethodPost, "/calls/mute", "")
	var snap call.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.Muted || snap.Elapsed != "0:00" {
		t.Fatalf("unexpected call %+v", snap)
	}

	if resp := do(r, http.MethodPost, "/calls/end", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := do(r, http.MethodPost, "/calls/decline", ""); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestAdminDashboardRoles(t *testing.T) {
	if resp := do(setupRouter(t, "u1"), http.MethodGet, "/admin", ""); resp.Code != http.StatusOK {
		t.Fatalf("owner: expected 200, got %d", resp.Code)
	}
	if resp := do(setupRouter(t, "u2"), http.MethodGet, "/admin", ""); resp.Code != http.StatusForbidden {
		t.Fatalf("user: expected 403, got %d", resp.Code)
	}
}
