package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const responseLogPrefix = "gateway:response"

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode json response: %v", responseLogPrefix, err))
	}
}

// WriteErrors writes the dialect-neutral failure envelope
// {"success": false, "errors": [...]}.
func WriteErrors(w http.ResponseWriter, status int, messages ...string) {
	WriteJSON(w, status, map[string]interface{}{
		"success": false,
		"errors":  messages,
	})
}

// MethodNotAllowed writes a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteErrors(w, http.StatusMethodNotAllowed, "method not allowed")
}
