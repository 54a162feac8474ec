package handler

import (
	"encoding/json"
	"net/http"
)

// webhookResponse is the envelope every webhook reply uses.
type webhookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func webhookError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, webhookResponse{Success: false, Error: msg})
}
