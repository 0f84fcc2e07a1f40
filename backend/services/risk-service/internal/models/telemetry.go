package models

import "time"

// TrafficCondition is the coarse traffic category reported with each sample.
type TrafficCondition string

const (
	TrafficLow    TrafficCondition = "Low"
	TrafficMedium TrafficCondition = "Medium"
	TrafficHigh   TrafficCondition = "High"
)

// FeatureVector holds one sample of motion and traffic features.
// JSON field names match the simulator/predictor wire format.
type FeatureVector struct {
	Speed            float64          `json:"Speed"`
	TrafficCondition TrafficCondition `json:"Traffic_Condition"`
	LinearX          float64          `json:"Linear_X"`
	LinearY          float64          `json:"Linear_Y"`
	LinearZ          float64          `json:"Linear_Z"`
	AngularX         float64          `json:"Angular_X"`
	AngularY         float64          `json:"Angular_Y"`
	AngularZ         float64          `json:"Angular_Z"`
}

// Location is a GPS fix attached to a sample.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TelemetrySample is one timestamped reading for a vehicle. Consumed once, not persisted as-is.
type TelemetrySample struct {
	VehicleNumber string        `json:"vehicle_number"`
	Timestamp     time.Time     `json:"timestamp"`
	Input         FeatureVector `json:"input"`
	Location      Location      `json:"location"`
}

// VehicleDataRecord is the persisted form of a scored telemetry sample.
type VehicleDataRecord struct {
	ID            int64         `db:"id" json:"id"`
	VehicleNumber string        `db:"vehicle_number" json:"vehicle_number"`
	Timestamp     time.Time     `db:"recorded_at" json:"timestamp"`
	Input         FeatureVector `json:"input"`
	Location      Location      `json:"location"`
	RiskScore     int           `db:"risk_score" json:"risk_score"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
