// Package response provides the standardized API response envelope.
package response

import (
	"encoding/json"
	"net/http"
)

// Response is a standard API response envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Success sends a successful JSON response.
func Success(w http.ResponseWriter, status int, data any) {
	sendJSON(w, status, Response{Success: true, Data: data})
}

// SendError sends an error JSON response.
func SendError(w http.ResponseWriter, status int, code, message string) {
	sendJSON(w, status, Response{Success: false, Error: &Error{Code: code, Message: message, Status: status}})
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
