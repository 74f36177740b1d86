package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusNotFound, "room not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"error":"room not found"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestDecodeJSONAllowsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var dst struct{ Text string }
	if err := DecodeJSON(req, &dst); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatal("expected error for truncated body")
	}
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)
	if err := SendSSEEvent(rec, rec, "message.created", map[string]string{"id": "m1"}); err != nil {
		t.Fatalf("SendSSEEvent err: %v", err)
	}

	want := "event: message.created\ndata: {\"id\":\"m1\"}\n\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected frame %q", rec.Body.String())
	}
	if !rec.Flushed {
		t.Fatal("expected flush")
	}
}
