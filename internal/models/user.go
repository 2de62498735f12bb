package models

import "time"

// User roles. Role checks beyond the property boundary happen at the edge;
// the ledger core only enforces property isolation.
const (
	RoleAdmin        = "admin"
	RoleManager      = "manager"
	RoleAttendant    = "attendant"
	RoleResident     = "resident"
	RoleProfessional = "professional"
)

type User struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	Apartment      string    `json:"apartment,omitempty"`
	PropertyID     *int      `json:"property_id,omitempty"`
	ProfessionalID *int      `json:"professional_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// LoginRequest is the body for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed JWT and the authenticated user.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
