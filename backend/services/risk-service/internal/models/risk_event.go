package models

import "time"

// RiskLevel is the coarse label produced by the external predictor.
type RiskLevel string

const (
	RiskSafe   RiskLevel = "Safe"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Valid reports whether the label is one of the known values.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskSafe, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Prediction is the predictor response consumed by the scorer. Not persisted on its own.
type Prediction struct {
	RiskLevel  RiskLevel `json:"risk_level"`
	Confidence float64   `json:"confidence_score"`
}

// EventType classifies a risky sample by its dominant signal.
type EventType string

const (
	EventOverspeed          EventType = "OVERSPEED"
	EventHardBrake          EventType = "HARD_BRAKE"
	EventAggressiveTurn     EventType = "AGGRESSIVE_TURN"
	EventSuddenAcceleration EventType = "SUDDEN_ACCELERATION"
	// EventNormal is never persisted; it suppresses event recording.
	EventNormal EventType = "NORMAL"
)

// RiskEvent is a persisted record of a non-Safe sample. Immutable once written.
type RiskEvent struct {
	ID            string        `db:"id" json:"id"`
	VehicleNumber string        `db:"vehicle_number" json:"vehicle_number"`
	UserID        string        `db:"user_id" json:"user_id"`
	RiskScore     int           `db:"risk_score" json:"risk_score"`
	EventType     EventType     `db:"event_type" json:"event_type"`
	Speed         float64       `db:"speed" json:"speed"`
	Location      Location      `json:"location"`
	Prediction    Prediction    `json:"ml_prediction"`
	RawData       FeatureVector `json:"raw_data"`
	Timestamp     time.Time     `db:"event_at" json:"timestamp"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
