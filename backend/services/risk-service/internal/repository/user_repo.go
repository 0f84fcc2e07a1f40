package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"driverisk/backend/services/risk-service/internal/models"
)

// ErrUserNotFound represents missing user rows.
var ErrUserNotFound = errors.New("user not found")

// UserRepository resolves vehicle ownership. Account management lives in another service;
// this repository only reads.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns repository instance.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByVehicle fetches the user a vehicle is registered to.
func (r *UserRepository) GetByVehicle(ctx context.Context, vehicleNumber string) (*models.User, error) {
	const query = `
		SELECT id, email, name, vehicle_number, role, created_at
		FROM users
		WHERE vehicle_number = $1
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(vehicleNumber))
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.VehicleNumber, &user.Role, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
