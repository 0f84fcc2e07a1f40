package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/service"
)

// LatestScoreHandler serves the newest risk score for a vehicle.
type LatestScoreHandler struct {
	service *service.RiskService
	logger  *zap.Logger
}

// NewLatestScoreHandler returns handler.
func NewLatestScoreHandler(svc *service.RiskService, logger *zap.Logger) *LatestScoreHandler {
	return &LatestScoreHandler{
		service: svc,
		logger:  logger,
	}
}

// ServeHTTP handles GET /vehicles/{vehicleNumber}/risk-score/latest.
func (h *LatestScoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vehicleNumber := r.PathValue("vehicleNumber")
	if vehicleNumber == "" {
		writeError(w, http.StatusBadRequest, "vehicle number is required")
		return
	}

	score, at, err := h.service.LatestScore(r.Context(), vehicleNumber)
	if err != nil {
		h.logger.Error("failed to fetch latest score",
			zap.String("vehicle_number", vehicleNumber), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch latest score")
		return
	}

	payload := map[string]interface{}{"risk_score": score}
	if !at.IsZero() {
		payload["recorded_at"] = at.UTC().Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, payload)
}
