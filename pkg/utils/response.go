// Package utils holds JSON and Server-Sent Events response helpers.
package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/zhouzirui/vyne/backend/internal/logging"
)

const maxBodyBytes = 1 << 20

// RespondJSON writes payload as JSON with status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		l := logging.L()
		l.Warn().Err(err).Msg("failed to encode response")
	}
}

// RespondError writes {"error": message} with status.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// DecodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
