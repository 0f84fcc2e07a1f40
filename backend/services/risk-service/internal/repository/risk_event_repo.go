package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"driverisk/backend/services/risk-service/internal/models"
)

// RiskEventRepository persists and queries risk events. Events are append-only.
type RiskEventRepository struct {
	db *sql.DB
}

// NewRiskEventRepository returns repository.
func NewRiskEventRepository(db *sql.DB) *RiskEventRepository {
	return &RiskEventRepository{db: db}
}

// Insert stores a new risk event, assigning its id.
func (r *RiskEventRepository) Insert(ctx context.Context, event *models.RiskEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO risk_events (
			id, vehicle_number, user_id, risk_score, event_type,
			speed, latitude, longitude,
			ml_risk_level, ml_confidence,
			raw_linear_x, raw_linear_y, raw_linear_z,
			raw_angular_x, raw_angular_y, raw_angular_z,
			raw_traffic_condition, event_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		event.ID,
		event.VehicleNumber,
		event.UserID,
		event.RiskScore,
		event.EventType,
		event.Speed,
		event.Location.Latitude,
		event.Location.Longitude,
		event.Prediction.RiskLevel,
		event.Prediction.Confidence,
		event.RawData.LinearX,
		event.RawData.LinearY,
		event.RawData.LinearZ,
		event.RawData.AngularX,
		event.RawData.AngularY,
		event.RawData.AngularZ,
		event.RawData.TrafficCondition,
		event.Timestamp,
	).Scan(&event.CreatedAt)
}

// ListSince returns all events for a vehicle at or after the given instant, newest first.
func (r *RiskEventRepository) ListSince(ctx context.Context, vehicleNumber string, since time.Time) ([]models.RiskEvent, error) {
	const query = selectEvents + `
		WHERE vehicle_number = $1 AND event_at >= $2
		ORDER BY event_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleNumber, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// EventFilter narrows a risk event query.
type EventFilter struct {
	VehicleNumber string
	StartDate     *time.Time
	EndDate       *time.Time
	EventType     models.EventType
	MinRiskScore  int
	Limit         int
}

// ListFiltered returns events matching the filter, newest first.
func (r *RiskEventRepository) ListFiltered(ctx context.Context, filter EventFilter) ([]models.RiskEvent, error) {
	conditions := []string{"vehicle_number = $1"}
	args := []interface{}{filter.VehicleNumber}

	if filter.StartDate != nil && filter.EndDate != nil {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("event_at >= $%d", len(args)))
		args = append(args, *filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("event_at <= $%d", len(args)))
	}
	if filter.EventType != "" {
		args = append(args, filter.EventType)
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if filter.MinRiskScore > 0 {
		args = append(args, filter.MinRiskScore)
		conditions = append(conditions, fmt.Sprintf("risk_score >= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf("%s WHERE %s ORDER BY event_at DESC LIMIT $%d",
		selectEvents, strings.Join(conditions, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

const selectEvents = `
	SELECT id, vehicle_number, user_id, risk_score, event_type,
		speed, latitude, longitude,
		ml_risk_level, ml_confidence,
		raw_linear_x, raw_linear_y, raw_linear_z,
		raw_angular_x, raw_angular_y, raw_angular_z,
		raw_traffic_condition, event_at, created_at
	FROM risk_events
`

func scanEvents(rows *sql.Rows) ([]models.RiskEvent, error) {
	var events []models.RiskEvent
	for rows.Next() {
		var ev models.RiskEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.VehicleNumber,
			&ev.UserID,
			&ev.RiskScore,
			&ev.EventType,
			&ev.Speed,
			&ev.Location.Latitude,
			&ev.Location.Longitude,
			&ev.Prediction.RiskLevel,
			&ev.Prediction.Confidence,
			&ev.RawData.LinearX,
			&ev.RawData.LinearY,
			&ev.RawData.LinearZ,
			&ev.RawData.AngularX,
			&ev.RawData.AngularY,
			&ev.RawData.AngularZ,
			&ev.RawData.TrafficCondition,
			&ev.Timestamp,
			&ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		ev.RawData.Speed = ev.Speed
		events = append(events, ev)
	}
	return events, rows.Err()
}
