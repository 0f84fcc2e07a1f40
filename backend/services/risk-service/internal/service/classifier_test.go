package service

import (
	"testing"

	"driverisk/backend/services/risk-service/internal/models"
)

func TestDetermineEventType(t *testing.T) {
	cases := []struct {
		name  string
		input models.FeatureVector
		want  models.EventType
	}{
		{
			name:  "overspeed",
			input: models.FeatureVector{Speed: 110},
			want:  models.EventOverspeed,
		},
		{
			name:  "hard brake",
			input: models.FeatureVector{Speed: 60, LinearX: -6},
			want:  models.EventHardBrake,
		},
		{
			name:  "aggressive turn",
			input: models.FeatureVector{Speed: 60, AngularZ: 2.5},
			want:  models.EventAggressiveTurn,
		},
		{
			name:  "sudden acceleration",
			input: models.FeatureVector{Speed: 60, LinearY: -3.5},
			want:  models.EventSuddenAcceleration,
		},
		{
			name:  "normal",
			input: models.FeatureVector{Speed: 60, LinearX: 1, LinearY: 1, AngularZ: 0.5},
			want:  models.EventNormal,
		},
		{
			name:  "overspeed wins over hard brake",
			input: models.FeatureVector{Speed: 110, LinearX: -6},
			want:  models.EventOverspeed,
		},
		{
			name:  "hard brake wins over turn and acceleration",
			input: models.FeatureVector{Speed: 60, LinearX: 5.1, LinearY: 4, AngularZ: 3},
			want:  models.EventHardBrake,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetermineEventType(tc.input); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
