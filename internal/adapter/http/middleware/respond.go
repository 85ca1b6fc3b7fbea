package middleware

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/iho/precatorio/internal/adapter/http/dto"
)

// writeError writes an error body in the API's error shape.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: message})
}
