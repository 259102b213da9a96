package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/pathfinder/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeMessage writes the {"message": ...} error body the client surfaces verbatim.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, services.MessageResponse{Message: message})
}

// writeData wraps payload as {"data": payload}.
func writeData[T any](w http.ResponseWriter, status int, payload *T) {
	writeJSON(w, status, services.Envelope[T]{Data: payload})
}
