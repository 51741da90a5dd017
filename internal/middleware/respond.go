package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError sends the API's error envelope. Handlers use the same shape.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
