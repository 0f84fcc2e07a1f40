package service

import "driverisk/backend/services/risk-service/internal/models"

// Trend direction values.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Trend compares the newest and oldest aggregate in a queried window.
type Trend struct {
	Direction string `json:"direction"`
	Change    int    `json:"change"`
}

// ComputeTrend derives direction and magnitude from aggregates ordered newest
// first. Fewer than two rows is a stable trend with zero change.
func ComputeTrend(scores []models.PeriodicRiskScore) Trend {
	if len(scores) < 2 {
		return Trend{Direction: TrendStable}
	}

	newest := scores[0].RiskScore
	oldest := scores[len(scores)-1].RiskScore
	diff := newest - oldest

	switch {
	case diff > 0:
		return Trend{Direction: TrendUp, Change: diff}
	case diff < 0:
		return Trend{Direction: TrendDown, Change: -diff}
	default:
		return Trend{Direction: TrendStable}
	}
}
