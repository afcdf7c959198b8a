package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Problem is the error body shape the transaction service uses.
type Problem struct {
	Detail string `json:"detail"`
}

// JSON writes payload as the response body.
func JSON(w http.ResponseWriter, status int, payload any) {
	write(w, status, payload)
}

// Error writes a {"detail": message} response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Problem{Detail: message})
}

func write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}
