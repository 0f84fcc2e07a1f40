package service

import (
	"math"

	"driverisk/backend/services/risk-service/internal/models"
)

// DetermineEventType maps a feature vector to a discrete event type.
// Rules are evaluated in fixed precedence order; the first match wins,
// which is the intended tie-break when several thresholds trip at once.
func DetermineEventType(in models.FeatureVector) models.EventType {
	switch {
	case in.Speed > 100:
		return models.EventOverspeed
	case math.Abs(in.LinearX) > 5:
		return models.EventHardBrake
	case math.Abs(in.AngularZ) > 2:
		return models.EventAggressiveTurn
	case math.Abs(in.LinearY) > 3:
		return models.EventSuddenAcceleration
	default:
		return models.EventNormal
	}
}
