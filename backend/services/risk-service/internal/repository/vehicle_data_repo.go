package repository

import (
	"context"
	"database/sql"
	"time"

	"driverisk/backend/services/risk-service/internal/models"
)

// VehicleDataRepository persists scored telemetry samples.
type VehicleDataRepository struct {
	db *sql.DB
}

// NewVehicleDataRepository returns repository.
func NewVehicleDataRepository(db *sql.DB) *VehicleDataRepository {
	return &VehicleDataRepository{db: db}
}

// Insert stores a new scored sample.
func (r *VehicleDataRepository) Insert(ctx context.Context, data *models.VehicleDataRecord) error {
	const query = `
		INSERT INTO vehicle_data (
			vehicle_number, recorded_at, risk_score,
			speed, traffic_condition,
			linear_x, linear_y, linear_z,
			angular_x, angular_y, angular_z,
			latitude, longitude, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		data.VehicleNumber,
		data.Timestamp,
		data.RiskScore,
		data.Input.Speed,
		data.Input.TrafficCondition,
		data.Input.LinearX,
		data.Input.LinearY,
		data.Input.LinearZ,
		data.Input.AngularX,
		data.Input.AngularY,
		data.Input.AngularZ,
		data.Location.Latitude,
		data.Location.Longitude,
	).Scan(&data.ID, &data.CreatedAt)
}

// ListByVehicle returns the most recent samples for a vehicle, newest first.
func (r *VehicleDataRepository) ListByVehicle(ctx context.Context, vehicleNumber string, limit int) ([]models.VehicleDataRecord, error) {
	const query = `
		SELECT id, vehicle_number, recorded_at, risk_score,
			speed, traffic_condition,
			linear_x, linear_y, linear_z,
			angular_x, angular_y, angular_z,
			latitude, longitude, created_at
		FROM vehicle_data
		WHERE vehicle_number = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleNumber, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.VehicleDataRecord
	for rows.Next() {
		var rec models.VehicleDataRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.VehicleNumber,
			&rec.Timestamp,
			&rec.RiskScore,
			&rec.Input.Speed,
			&rec.Input.TrafficCondition,
			&rec.Input.LinearX,
			&rec.Input.LinearY,
			&rec.Input.LinearZ,
			&rec.Input.AngularX,
			&rec.Input.AngularY,
			&rec.Input.AngularZ,
			&rec.Location.Latitude,
			&rec.Location.Longitude,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestScore returns the newest stored risk score for a vehicle along with
// the time the sample was recorded.
func (r *VehicleDataRepository) LatestScore(ctx context.Context, vehicleNumber string) (int, time.Time, error) {
	const query = `
		SELECT risk_score, recorded_at
		FROM vehicle_data
		WHERE vehicle_number = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	var (
		score int
		at    time.Time
	)
	if err := r.db.QueryRowContext(ctx, query, vehicleNumber).Scan(&score, &at); err != nil {
		return 0, time.Time{}, err
	}
	return score, at, nil
}
