package service

import (
	"testing"

	"driverisk/backend/services/risk-service/internal/models"
)

func scoresOf(values ...int) []models.PeriodicRiskScore {
	scores := make([]models.PeriodicRiskScore, 0, len(values))
	for _, v := range values {
		scores = append(scores, models.PeriodicRiskScore{RiskScore: v})
	}
	return scores
}

func TestComputeTrend(t *testing.T) {
	cases := []struct {
		name       string
		scores     []models.PeriodicRiskScore
		wantDir    string
		wantChange int
	}{
		{name: "empty", scores: nil, wantDir: TrendStable, wantChange: 0},
		{name: "single row", scores: scoresOf(42), wantDir: TrendStable, wantChange: 0},
		{name: "risk increased", scores: scoresOf(70, 50), wantDir: TrendUp, wantChange: 20},
		{name: "risk decreased", scores: scoresOf(30, 55), wantDir: TrendDown, wantChange: 25},
		{name: "unchanged", scores: scoresOf(50, 50), wantDir: TrendStable, wantChange: 0},
		{name: "middle values ignored", scores: scoresOf(60, 95, 10, 40), wantDir: TrendUp, wantChange: 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trend := ComputeTrend(tc.scores)
			if trend.Direction != tc.wantDir {
				t.Fatalf("expected direction %s, got %s", tc.wantDir, trend.Direction)
			}
			if trend.Change != tc.wantChange {
				t.Fatalf("expected change %d, got %d", tc.wantChange, trend.Change)
			}
		})
	}
}
