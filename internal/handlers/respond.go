package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"portaria-backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: encode response: %v", err)
	}
}

// writeError maps the ledger/directory sentinels onto HTTP statuses.
// Property mismatches are always 403, never disguised as 404.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUnknownGateStation):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUnauthorizedTenant):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		// Keep driver and internal detail in the log, not the response.
		log.Printf("handlers: %v", err)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
