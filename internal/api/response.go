// Package api implements the HTTP handlers of the exchange rate hub: the
// public rate displays, the admin pages and the JSON API.
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const timeLayoutJSON = time.RFC3339

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid currency code"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeHTML renders into a buffer first so a template error never leaves a
// half-written page behind.
func writeHTML(w http.ResponseWriter, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
