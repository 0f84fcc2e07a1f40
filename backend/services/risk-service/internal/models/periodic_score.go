package models

import "time"

// Period is the aggregation window kind.
type Period string

const (
	PeriodDaily   Period = "DAILY"
	PeriodMonthly Period = "MONTHLY"
)

// Valid reports whether the period is a known window kind.
func (p Period) Valid() bool {
	return p == PeriodDaily || p == PeriodMonthly
}

// PeriodicRiskScore is a rolling mean risk score for one vehicle and window.
// At most one row exists per (vehicle, period, start_date); rows are upserted,
// never deleted, and always reconstructable from the risk event history.
type PeriodicRiskScore struct {
	ID            int64     `db:"id" json:"id"`
	VehicleNumber string    `db:"vehicle_number" json:"vehicle_number"`
	UserID        string    `db:"user_id" json:"user_id"`
	RiskScore     int       `db:"risk_score" json:"risk_score"`
	Period        Period    `db:"period" json:"period"`
	StartDate     time.Time `db:"start_date" json:"start_date"`
	EndDate       time.Time `db:"end_date" json:"end_date"`
	DataPoints    int       `db:"data_points" json:"data_points"`
}
