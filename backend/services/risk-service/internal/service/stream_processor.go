package service

import (
	"context"
	"encoding/json"
	"time"

	"driverisk/backend/services/risk-service/internal/models"
)

// StreamProcessor adapts the pipeline to streaming ingest: each frame is one
// telemetry sample, each reply carries the score or an error message.
type StreamProcessor struct {
	service *RiskService
}

// NewStreamProcessor returns processor.
func NewStreamProcessor(svc *RiskService) *StreamProcessor {
	return &StreamProcessor{service: svc}
}

type streamFrame struct {
	Timestamp time.Time            `json:"timestamp"`
	Input     models.FeatureVector `json:"input"`
	Location  models.Location      `json:"location"`
}

type streamReply struct {
	RiskScore int    `json:"risk_score"`
	Degraded  bool   `json:"degraded,omitempty"`
	Warning   string `json:"warning,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Process scores one raw frame. Malformed frames and pipeline failures are
// reported back on the stream instead of tearing the connection down.
func (p *StreamProcessor) Process(ctx context.Context, vehicleNumber string, raw []byte) ([]byte, error) {
	var frame streamFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return json.Marshal(streamReply{Error: "invalid json frame"})
	}

	result, err := p.service.ProcessSample(ctx, models.TelemetrySample{
		VehicleNumber: vehicleNumber,
		Timestamp:     frame.Timestamp,
		Input:         frame.Input,
		Location:      frame.Location,
	})
	if err != nil {
		return json.Marshal(streamReply{Error: err.Error()})
	}

	return json.Marshal(streamReply{
		RiskScore: result.RiskScore,
		Degraded:  result.Degraded,
		Warning:   result.Warning,
	})
}
