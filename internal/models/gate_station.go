package models

import "time"

// GateStation is a physical attendant checkpoint. Each station belongs to
// exactly one property; the attendant dashboard for a station subscribes to
// the room "gate:<id>".
type GateStation struct {
	ID         int       `json:"id"`
	PropertyID int       `json:"property_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Property is the multi-tenancy boundary. All records and stations belong to
// exactly one property.
type Property struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}
