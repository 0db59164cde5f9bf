package rest

import (
	"encoding/json"
	"net/http"
)

// Envelope is the success wrapper every content-bearing response uses.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Content interface{} `json:"content"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondEnvelope(w http.ResponseWriter, message string, content interface{}) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Content: content})
}
