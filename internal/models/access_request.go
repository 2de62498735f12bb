package models

import "time"

// AccessState is the lifecycle state of an access request.
//
// Transitions are monotonic:
//
//	requested -> approved  -> in_progress -> completed
//	requested -> in_progress  (attendant records entry without approval)
//	requested -> denied
//	requested -> expired      (sweeper only)
//
// completed, denied and expired are terminal. Exit can only be recorded
// from in_progress; re-closing a completed request is rejected.
type AccessState string

const (
	StateRequested  AccessState = "requested"
	StateApproved   AccessState = "approved"
	StateInProgress AccessState = "in_progress"
	StateCompleted  AccessState = "completed"
	StateDenied     AccessState = "denied"
	StateExpired    AccessState = "expired"
)

// Channel identifies which entry point created the access request.
type Channel string

const (
	ChannelPreAuthorization Channel = "resident_pre_authorization"
	ChannelAttendantDirect  Channel = "attendant_direct"
	ChannelSelfCheckin      Channel = "credential_self_checkin"
)

// AccessRequest is one visitor/vendor entry attempt or pre-authorization.
// PropertyID is immutable after creation. GateStationID is nil until a
// physical attempt occurs and immutable once set. Professional data is
// denormalized onto the record for historical reporting.
type AccessRequest struct {
	ID               int         `json:"id"`
	PropertyID       int         `json:"property_id"`
	GateStationID    *int        `json:"gate_station_id,omitempty"`
	ResidentUserID   *int        `json:"resident_user_id,omitempty"`
	ProfessionalID   *int        `json:"professional_id,omitempty"`
	ProfessionalName string      `json:"professional_name"`
	Service          string      `json:"service"`
	Company          string      `json:"company,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Channel          Channel     `json:"channel"`
	State            AccessState `json:"state"`
	RequestedFor     *time.Time  `json:"requested_for,omitempty"`
	ApprovedByUserID *int        `json:"approved_by_user_id,omitempty"`
	ApprovedAt       *time.Time  `json:"approved_at,omitempty"`
	EntryByUserID    *int        `json:"entry_by_user_id,omitempty"`
	EnteredAt        *time.Time  `json:"entered_at,omitempty"`
	ExitByUserID     *int        `json:"exit_by_user_id,omitempty"`
	ExitedAt         *time.Time  `json:"exited_at,omitempty"`
	DeniedByUserID   *int        `json:"denied_by_user_id,omitempty"`
	DeniedAt         *time.Time  `json:"denied_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// PreAuthorizeRequest is the body a resident submits to pre-authorize a visit.
type PreAuthorizeRequest struct {
	ProfessionalName string `json:"professional_name,omitempty"`
	Service          string `json:"service"`
	Company          string `json:"company,omitempty"`
	Notes            string `json:"notes,omitempty"`
	RequestedFor     string `json:"requested_for,omitempty"` // YYYY-MM-DD
}

// RegisterDirectRequest is the body an attendant submits for a walk-in
// professional with no pre-authorization.
type RegisterDirectRequest struct {
	GateStationID    int    `json:"gate_station_id"`
	ProfessionalName string `json:"professional_name"`
	Document         string `json:"document,omitempty"`
	Company          string `json:"company,omitempty"`
	VehiclePlate     string `json:"vehicle_plate,omitempty"`
	Service          string `json:"service"`
}

// SelfCheckinRequest is the body a professional submits after scanning the
// station QR code.
type SelfCheckinRequest struct {
	GateStationID int    `json:"gate_station_id"`
	Service       string `json:"service,omitempty"`
}

// RecordEntryRequest carries the station at which the physical entry happens.
// Ignored when the record already has a station.
type RecordEntryRequest struct {
	GateStationID int `json:"gate_station_id"`
}

// AccessRequestFilter narrows the read-only list queries.
type AccessRequestFilter struct {
	GateStationID *int
	State         *AccessState
	From          *time.Time
	To            *time.Time
}

// DailySummary is the attendant dashboard counter row.
type DailySummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Inside    int `json:"inside"`
	Completed int `json:"completed"`
}
