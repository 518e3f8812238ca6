package handlers

import (
	"encoding/json"
	"net/http"
)

// statusResponse is the envelope for cron relay responses.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, success bool, message string) {
	writeJSON(w, http.StatusOK, statusResponse{Success: success, Message: message})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid cron secret"})
}
