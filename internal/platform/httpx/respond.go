// Package httpx provides HTTP response and request utilities shared by the
// middleware pipeline and handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Error kinds used in structured rejection bodies.
const (
	KindBadRequest    = "bad_request"
	KindUnauthorized  = "unauthorized"
	KindForbidden     = "forbidden"
	KindRateLimited   = "rate_limited"
	KindQuotaExceeded = "quota_exceeded"
	KindConflict      = "conflict"
	KindInternal      = "internal_error"
)

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends a structured rejection body of the form {error, message}.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, map[string]any{"error": kind, "message": message})
}

// ErrorWith sends a structured rejection body with additional
// machine-readable fields merged in (retry timing, actual role, usage).
func ErrorWith(w http.ResponseWriter, status int, kind, message string, extras map[string]any) {
	body := map[string]any{"error": kind, "message": message}
	for k, v := range extras {
		body[k] = v
	}
	JSON(w, status, body)
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
