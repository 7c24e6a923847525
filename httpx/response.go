// Package httpx holds small response helpers shared by the handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of every non-HTML error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload as the JSON body with status. A nil payload is
// written as null. When payload cannot be encoded the client gets a 500
// with an encode_error body instead.
func JSON(w http.ResponseWriter, status int, payload any) {
	body := []byte("null")
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"encode_error"}`))
			return
		}
		body = b
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError replies with an ErrorResponse carrying code and the optional
// details.
func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}
