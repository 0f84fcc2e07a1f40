package repository

import (
	"context"
	"database/sql"

	"driverisk/backend/services/risk-service/internal/models"
)

// PeriodicScoreRepository maintains rolling per-vehicle aggregates.
type PeriodicScoreRepository struct {
	db *sql.DB
}

// NewPeriodicScoreRepository returns repository.
func NewPeriodicScoreRepository(db *sql.DB) *PeriodicScoreRepository {
	return &PeriodicScoreRepository{db: db}
}

// Upsert writes an aggregate keyed by (vehicle_number, period, start_date).
// The conflict target makes the write atomic, so concurrent recomputations
// for the same window cannot produce duplicate rows.
func (r *PeriodicScoreRepository) Upsert(ctx context.Context, score *models.PeriodicRiskScore) error {
	const query = `
		INSERT INTO periodic_risk_scores (
			vehicle_number, user_id, risk_score, period, start_date, end_date, data_points
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vehicle_number, period, start_date)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			risk_score = EXCLUDED.risk_score,
			end_date = EXCLUDED.end_date,
			data_points = EXCLUDED.data_points
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		score.VehicleNumber,
		score.UserID,
		score.RiskScore,
		score.Period,
		score.StartDate,
		score.EndDate,
		score.DataPoints,
	).Scan(&score.ID)
}

// ListByVehicle returns aggregates for a vehicle and period, newest window first.
func (r *PeriodicScoreRepository) ListByVehicle(ctx context.Context, vehicleNumber string, period models.Period, limit int) ([]models.PeriodicRiskScore, error) {
	const query = `
		SELECT id, vehicle_number, user_id, risk_score, period, start_date, end_date, data_points
		FROM periodic_risk_scores
		WHERE vehicle_number = $1 AND period = $2
		ORDER BY start_date DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleNumber, period, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []models.PeriodicRiskScore
	for rows.Next() {
		var s models.PeriodicRiskScore
		if err := rows.Scan(
			&s.ID,
			&s.VehicleNumber,
			&s.UserID,
			&s.RiskScore,
			&s.Period,
			&s.StartDate,
			&s.EndDate,
			&s.DataPoints,
		); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
