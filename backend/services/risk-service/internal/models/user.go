package models

import "time"

// User is the owning account a vehicle is registered to. Managed elsewhere;
// this service only resolves vehicle → user for event attribution.
type User struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Name          string    `db:"name" json:"name"`
	VehicleNumber string    `db:"vehicle_number" json:"vehicle_number"`
	Role          string    `db:"role" json:"role"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
