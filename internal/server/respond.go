package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Encoding response failed", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		slog.Warn("Request failed", "status", status, "message", message, "err", err)
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
