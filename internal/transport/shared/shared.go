// Package shared centralizes JSON response writing so every handler produces
// the same envelopes: {"data": ...} on success, {"error": ..., "message": ...}
// on failure.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "atelier/pkg/domain-errors"
)

// WriteData writes a success envelope with the given status.
func WriteData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

// WriteError translates a coded error into an HTTP response. Plain errors
// map to 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   string(code),
		"message": message,
	})
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
