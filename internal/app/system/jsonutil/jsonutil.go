// Package jsonutil writes JSON responses with consistent headers.
package jsonutil

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as JSON with the given status code. A nil data writes
// headers only.
//
//	jsonutil.JSON(w, http.StatusOK, map[string]any{"time": 1.7e9})
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// String writes s encoded as a bare JSON string.
func String(w http.ResponseWriter, status int, s string) {
	JSON(w, status, s)
}
