package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/models"
	"driverisk/backend/services/risk-service/internal/service"
)

// TelemetryHandler accepts telemetry samples for scoring.
type TelemetryHandler struct {
	service *service.RiskService
	logger  *zap.Logger
}

// NewTelemetryHandler returns handler.
func NewTelemetryHandler(svc *service.RiskService, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		service: svc,
		logger:  logger,
	}
}

type telemetryRequest struct {
	Timestamp time.Time            `json:"timestamp"`
	Input     models.FeatureVector `json:"input"`
	Location  models.Location      `json:"location"`
}

// ServeHTTP handles POST /vehicles/{vehicleNumber}/telemetry.
func (h *TelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vehicleNumber := r.PathValue("vehicleNumber")
	if vehicleNumber == "" {
		writeError(w, http.StatusBadRequest, "vehicle number is required")
		return
	}

	var req telemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	sample := models.TelemetrySample{
		VehicleNumber: vehicleNumber,
		Timestamp:     req.Timestamp,
		Input:         req.Input,
		Location:      req.Location,
	}

	result, err := h.service.ProcessSample(r.Context(), sample)
	if err != nil {
		h.logger.Error("failed to process telemetry sample",
			zap.String("vehicle_number", vehicleNumber), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
