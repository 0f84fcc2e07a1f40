package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"driverisk/backend/services/risk-service/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps pipeline error classes to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var invalidPred *service.InvalidPredictionError
	var predictorErr *service.PredictorError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &invalidPred):
		writeError(w, http.StatusBadGateway, invalidPred.Error())
	case errors.As(err, &predictorErr):
		writeError(w, http.StatusBadGateway, "risk predictor unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "failed to process request")
	}
}
