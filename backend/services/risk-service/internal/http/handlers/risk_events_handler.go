package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/models"
	"driverisk/backend/services/risk-service/internal/repository"
	"driverisk/backend/services/risk-service/internal/service"
)

// RiskEventsHandler serves filtered risk events with summary statistics.
type RiskEventsHandler struct {
	service *service.RiskService
	logger  *zap.Logger
}

// NewRiskEventsHandler returns handler.
func NewRiskEventsHandler(svc *service.RiskService, logger *zap.Logger) *RiskEventsHandler {
	return &RiskEventsHandler{
		service: svc,
		logger:  logger,
	}
}

// ServeHTTP handles GET /vehicles/{vehicleNumber}/risk-events.
func (h *RiskEventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vehicleNumber := r.PathValue("vehicleNumber")
	if vehicleNumber == "" {
		writeError(w, http.StatusBadRequest, "vehicle number is required")
		return
	}

	filter := repository.EventFilter{VehicleNumber: vehicleNumber}
	query := r.URL.Query()

	if startRaw, endRaw := query.Get("startDate"), query.Get("endDate"); startRaw != "" && endRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startDate must be RFC3339")
			return
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endDate must be RFC3339")
			return
		}
		filter.StartDate = &start
		filter.EndDate = &end
	}

	if eventType := query.Get("eventType"); eventType != "" {
		filter.EventType = models.EventType(eventType)
	}

	if raw := query.Get("minRiskScore"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "minRiskScore must be a non-negative integer")
			return
		}
		filter.MinRiskScore = parsed
	}

	events, stats, err := h.service.RiskEvents(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to fetch risk events",
			zap.String("vehicle_number", vehicleNumber), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch risk events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events":     events,
		"statistics": stats,
	})
}
