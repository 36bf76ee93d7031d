package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"shareit/internal/database"
	"shareit/internal/models"
	"shareit/internal/validation"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var incorrect *validation.IncorrectParameterError
	var unsupported *models.UnsupportedStateError

	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrNotAvailable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &incorrect):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unsupported):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
