package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/persistence"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		globals.AppLogger.Error("could not encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps persistence errors onto http statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	globals.AppLogger.Error("storage error", "error", err)
	writeError(w, http.StatusInternalServerError, "storage error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
