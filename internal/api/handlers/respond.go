package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/pkg/logger"
)

const dateLayout = "2006-01-02"

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondStoreError maps ErrNotFound to 404 and anything else to 500
func respondStoreError(w http.ResponseWriter, log *logger.Logger, err error, what string) {
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, what+" not found")
		return
	}
	log.WithError(err).Error("Failed to load " + what)
	respondError(w, http.StatusInternalServerError, "Failed to load "+what)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
