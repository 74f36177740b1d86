package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "info"}, &buf)

	ctx := WithLogger(context.Background(), logger)
	l := Ctx(ctx)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")

	// No panic and a usable logger without a stored one.
	g := Ctx(context.Background())
	g.Debug().Msg("ignored")
}

func TestHTTPMiddlewareLogsAndSetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "info", Service: "vyne"}, &buf)

	var sawLogger bool
	h := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := Ctx(r.Context())
		l.Info().Msg("inside handler")
		sawLogger = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	require.True(t, sawLogger)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/api/rooms"`)
	assert.Contains(t, buf.String(), `"service":"vyne"`)
}
