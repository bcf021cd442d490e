// Package httpx provides the JSON response envelope used by the API.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the shape of every API response: a success flag, a
// human-readable message and either data or an error code.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failed envelope.
func Fail(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Envelope{Success: false, Message: message, Code: code})
}

// DecodeJSON decodes the request body into target, rejecting unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
