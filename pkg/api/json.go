package api

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response already committed; nothing left to do.
		_ = err
	}
}

func writeError(w http.ResponseWriter, statusCode int, msg, details string) {
	writeJSON(w, statusCode, errorResponse{Error: msg, Details: details})
}
