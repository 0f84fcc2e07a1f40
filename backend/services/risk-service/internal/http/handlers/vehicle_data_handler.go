package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"driverisk/backend/services/risk-service/internal/service"
)

// VehicleDataHandler lists recent raw telemetry for a vehicle.
type VehicleDataHandler struct {
	service *service.RiskService
	logger  *zap.Logger
}

// NewVehicleDataHandler returns handler.
func NewVehicleDataHandler(svc *service.RiskService, logger *zap.Logger) *VehicleDataHandler {
	return &VehicleDataHandler{
		service: svc,
		logger:  logger,
	}
}

// ServeHTTP handles GET /vehicles/{vehicleNumber}/data.
func (h *VehicleDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vehicleNumber := r.PathValue("vehicleNumber")
	if vehicleNumber == "" {
		writeError(w, http.StatusBadRequest, "vehicle number is required")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.service.VehicleData(r.Context(), vehicleNumber, limit)
	if err != nil {
		h.logger.Error("failed to fetch vehicle data",
			zap.String("vehicle_number", vehicleNumber), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch vehicle data")
		return
	}

	writeJSON(w, http.StatusOK, records)
}
