// ABOUTME: JSON error response helper for middleware
// ABOUTME: Writes models.ErrorResponse so middleware errors match handler errors

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/caffeinepub/crocheting-app/backend/models"
)

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
