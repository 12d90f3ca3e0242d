package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes a JSON error response matching the API envelope
// (success=false) with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
