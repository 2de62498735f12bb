package models

import "time"

// Professional is the visiting vendor/service provider whose entries are
// tracked. Looked up by document at the gate for walk-in registration.
type Professional struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Document     string    `json:"document,omitempty"`
	Company      string    `json:"company,omitempty"`
	VehiclePlate string    `json:"vehicle_plate,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
