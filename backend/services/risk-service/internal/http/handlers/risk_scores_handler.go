package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/models"
	"driverisk/backend/services/risk-service/internal/service"
)

// RiskScoresHandler serves periodic aggregates with a trend signal.
type RiskScoresHandler struct {
	service *service.RiskService
	logger  *zap.Logger
}

// NewRiskScoresHandler returns handler.
func NewRiskScoresHandler(svc *service.RiskService, logger *zap.Logger) *RiskScoresHandler {
	return &RiskScoresHandler{
		service: svc,
		logger:  logger,
	}
}

// ServeHTTP handles GET /vehicles/{vehicleNumber}/risk-scores.
func (h *RiskScoresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vehicleNumber := r.PathValue("vehicleNumber")
	if vehicleNumber == "" {
		writeError(w, http.StatusBadRequest, "vehicle number is required")
		return
	}

	period := models.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = models.PeriodDaily
	}
	if !period.Valid() {
		writeError(w, http.StatusBadRequest, "period must be DAILY or MONTHLY")
		return
	}

	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	scores, trend, err := h.service.RiskScores(r.Context(), vehicleNumber, period, limit)
	if err != nil {
		h.logger.Error("failed to fetch periodic risk scores",
			zap.String("vehicle_number", vehicleNumber), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch periodic risk scores")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scores": scores,
		"trend":  trend,
	})
}
