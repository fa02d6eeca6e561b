package controller

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

const (
	headerPrefix = "St-"
)

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func (c controller) getHeader(r *http.Request, key string) string {
	return r.Header.Get(headerPrefix + key)
}

func (c controller) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.Warn("failed to write json response", "error", err)
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func (c controller) writeError(w http.ResponseWriter, status int, msg string, details any) {
	c.writeJSON(w, status, &errorResponse{Error: msg, Details: details})
}
