package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope is the wire shape of every gateway response: exactly one of Data
// or Error is set, Time is stamped at write.
type envelope struct {
	Data  any    `json:"data,omitempty"`
	Time  string `json:"time"`
	Error any    `json:"error,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	// responses carry session-dependent state and must not be cached
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	body.Time = time.Now().UTC().Format(time.RFC3339)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	write(w, status, envelope{Data: v})
}

func WriteError[T any](w http.ResponseWriter, status int, errBody ErrorResponse[T]) {
	write(w, status, envelope{Error: errBody})
}
