package service

import (
	"fmt"
	"math"

	"driverisk/backend/services/risk-service/internal/models"
)

// Base scores per predicted risk level before confidence scaling.
const (
	baseScoreHigh   = 80
	baseScoreMedium = 50
	baseScoreSafe   = 20
)

// CalculateRiskScore combines the predictor output and the raw features into a
// bounded score in [0,100]. Deterministic: the same prediction and features
// always produce the same score, so replayed samples score identically.
func CalculateRiskScore(pred models.Prediction, in models.FeatureVector) (int, error) {
	if !pred.RiskLevel.Valid() {
		return 0, &InvalidPredictionError{Reason: fmt.Sprintf("unknown risk level %q", pred.RiskLevel)}
	}
	if pred.Confidence < 0 || pred.Confidence > 100 {
		return 0, &InvalidPredictionError{Reason: fmt.Sprintf("confidence %.2f outside [0,100]", pred.Confidence)}
	}

	var base float64
	switch pred.RiskLevel {
	case models.RiskHigh:
		base = baseScoreHigh
	case models.RiskMedium:
		base = baseScoreMedium
	default:
		base = baseScoreSafe
	}

	score := base * (pred.Confidence / 100)
	score += ruleBonus(in)

	return clampScore(score), nil
}

// FallbackRiskScore is the degraded rule-only path used when the predictor is
// unavailable: the classifier stands in for the model, at full confidence.
func FallbackRiskScore(in models.FeatureVector) int {
	base := float64(baseScoreSafe)
	if DetermineEventType(in) != models.EventNormal {
		base = baseScoreMedium
	}
	return clampScore(base + ruleBonus(in))
}

func ruleBonus(in models.FeatureVector) float64 {
	var bonus float64
	if in.Speed > 120 {
		bonus += 20
	} else if in.Speed > 100 {
		bonus += 10
	}
	if in.TrafficCondition == models.TrafficHigh {
		bonus += 10
	}
	return bonus
}

func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded > 100 {
		return 100
	}
	if rounded < 0 {
		return 0
	}
	return rounded
}
