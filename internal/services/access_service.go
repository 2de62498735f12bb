package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"portaria-backend/internal/models"
	"portaria-backend/internal/monitoring"
)

// EventNewAccessRequest is the event tag dashboards listen for. Every
// committed transition on a record with a gate station is announced under
// this tag to the station's room.
const EventNewAccessRequest = "new-access-request"

// AccessEvent is the room broadcast payload.
type AccessEvent struct {
	ID                   int    `json:"id"`
	CredentialHolderName string `json:"credential_holder_name"`
	EventTime            string `json:"event_time"` // local wall clock, HH:MM:SS
}

// AccessRequestStore is the ledger commit surface. Implementations must make
// each transition an atomic compare-and-set on the stored state: concurrent
// transitions on the same record yield exactly one success, the rest
// ErrInvalidTransition.
type AccessRequestStore interface {
	Create(ctx context.Context, req *models.AccessRequest) error
	Get(ctx context.Context, id int) (*models.AccessRequest, error)
	Approve(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error)
	RecordEntry(ctx context.Context, id, actorID, stationID int, at time.Time) (*models.AccessRequest, error)
	RecordExit(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error)
	Deny(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error)
	ListByProperty(ctx context.Context, propertyID int, filter *models.AccessRequestFilter) ([]*models.AccessRequest, error)
	ListPending(ctx context.Context, propertyID int) ([]*models.AccessRequest, error)
	ListInside(ctx context.Context, propertyID int) ([]*models.AccessRequest, error)
	ListByResident(ctx context.Context, residentUserID, limit int) ([]*models.AccessRequest, error)
	DailySummary(ctx context.Context, propertyID int) (*models.DailySummary, error)
}

// ProfessionalStore resolves credential holders for the walk-in flow.
type ProfessionalStore interface {
	Get(ctx context.Context, id int) (*models.Professional, error)
	GetByDocument(ctx context.Context, document string) (*models.Professional, error)
	Create(ctx context.Context, p *models.Professional) error
}

// Publisher is the fire-and-forget side channel. Publish must never block
// the caller; delivery failures stay inside the publisher.
type Publisher interface {
	Publish(room, event string, data interface{})
}

// Actor is the authenticated caller, extracted from the JWT at the edge.
type Actor struct {
	UserID         int
	PropertyID     int
	Role           string
	ProfessionalID *int
}

// AccessService orchestrates the access request lifecycle: it checks the
// caller's property against the target, commits the transition through the
// ledger store, and on success announces the change to the station's room.
// Ledger errors propagate to the caller unchanged; notification failures
// never do.
type AccessService struct {
	Requests      AccessRequestStore
	Professionals ProfessionalStore
	Directory     *GateDirectory
	Publisher     Publisher
}

func NewAccessService(requests AccessRequestStore, professionals ProfessionalStore, directory *GateDirectory, publisher Publisher) *AccessService {
	return &AccessService{
		Requests:      requests,
		Professionals: professionals,
		Directory:     directory,
		Publisher:     publisher,
	}
}

// PreAuthorize creates a pending request on behalf of a resident. No gate
// station is involved yet, so nothing is broadcast.
func (s *AccessService) PreAuthorize(ctx context.Context, actor Actor, req *models.PreAuthorizeRequest) (*models.AccessRequest, error) {
	if actor.PropertyID == 0 {
		return nil, models.ErrUnauthorizedTenant
	}
	if req.Service == "" {
		return nil, fmt.Errorf("%w: service is required", models.ErrInvalidInput)
	}

	var requestedFor *time.Time
	if req.RequestedFor != "" {
		day, err := time.ParseInLocation("2006-01-02", req.RequestedFor, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: requested_for must be YYYY-MM-DD", models.ErrInvalidInput)
		}
		requestedFor = &day
	}

	record := &models.AccessRequest{
		PropertyID:       actor.PropertyID,
		ResidentUserID:   &actor.UserID,
		ProfessionalName: req.ProfessionalName,
		Service:          req.Service,
		Company:          req.Company,
		Notes:            req.Notes,
		Channel:          models.ChannelPreAuthorization,
		RequestedFor:     requestedFor,
	}
	if err := s.Requests.Create(ctx, record); err != nil {
		monitoring.TransitionsTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	monitoring.TransitionsTotal.WithLabelValues("create", "ok").Inc()
	return record, nil
}

// RegisterDirect creates a request for a walk-in professional at the
// attendant's station. The professional is resolved by document or created
// on the spot; the name is denormalized onto the record.
func (s *AccessService) RegisterDirect(ctx context.Context, actor Actor, req *models.RegisterDirectRequest) (*models.AccessRequest, error) {
	if req.ProfessionalName == "" || req.Service == "" {
		return nil, fmt.Errorf("%w: professional_name and service are required", models.ErrInvalidInput)
	}
	if err := s.checkStationTenant(ctx, actor, req.GateStationID); err != nil {
		return nil, err
	}

	professional, err := s.resolveProfessional(ctx, req)
	if err != nil {
		return nil, err
	}

	record := &models.AccessRequest{
		PropertyID:       actor.PropertyID,
		GateStationID:    &req.GateStationID,
		ProfessionalID:   &professional.ID,
		ProfessionalName: professional.Name,
		Service:          req.Service,
		Company:          professional.Company,
		Channel:          models.ChannelAttendantDirect,
	}
	if err := s.Requests.Create(ctx, record); err != nil {
		monitoring.TransitionsTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	monitoring.TransitionsTotal.WithLabelValues("create", "ok").Inc()
	s.notify(ctx, record, record.CreatedAt)
	return record, nil
}

// SelfCheckin creates a pending request when a professional scans the
// station QR code. The target property comes from the station, not the
// caller, because professionals belong to no property.
func (s *AccessService) SelfCheckin(ctx context.Context, actor Actor, req *models.SelfCheckinRequest) (*models.AccessRequest, error) {
	if actor.ProfessionalID == nil {
		return nil, fmt.Errorf("%w: account is not linked to a professional profile", models.ErrInvalidInput)
	}
	propertyID, err := s.Directory.ResolveTenant(ctx, req.GateStationID)
	if err != nil {
		return nil, err
	}
	professional, err := s.Professionals.Get(ctx, *actor.ProfessionalID)
	if err != nil {
		return nil, err
	}

	service := req.Service
	if service == "" {
		service = "Awaiting verification"
	}

	record := &models.AccessRequest{
		PropertyID:       propertyID,
		GateStationID:    &req.GateStationID,
		ProfessionalID:   &professional.ID,
		ProfessionalName: professional.Name,
		Service:          service,
		Company:          professional.Company,
		Channel:          models.ChannelSelfCheckin,
	}
	if err := s.Requests.Create(ctx, record); err != nil {
		monitoring.TransitionsTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	monitoring.TransitionsTotal.WithLabelValues("create", "ok").Inc()
	s.notify(ctx, record, record.CreatedAt)
	return record, nil
}

// Approve moves a pending request to approved. Exactly one of two
// concurrent approvals wins; the loser sees ErrInvalidTransition.
func (s *AccessService) Approve(ctx context.Context, actor Actor, id int) (*models.AccessRequest, error) {
	if err := s.checkRecordTenant(ctx, actor, id); err != nil {
		return nil, err
	}
	now := time.Now()
	record, err := s.Requests.Approve(ctx, id, actor.UserID, now)
	if err != nil {
		monitoring.TransitionsTotal.WithLabelValues("approve", outcome(err)).Inc()
		return nil, err
	}
	monitoring.TransitionsTotal.WithLabelValues("approve", "ok").Inc()
	s.notify(ctx, record, now)
	return record, nil
}

// RecordEntry marks the physical entry at a station. Legal from requested
// (the attendant shortcut, any channel) and from approved.
func (s *AccessService) RecordEntry(ctx context.Context, actor Actor, id, stationID int) (*models.AccessRequest, error) {
	current, err := s.getAuthorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	// Station immutability is enforced by the store; here we only vet a
	// station that is about to be pinned for the first time.
	if current.GateStationID == nil {
		if err := s.checkStationTenant(ctx, actor, stationID); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	record, err := s.Requests.RecordEntry(ctx, id, actor.UserID, stationID, now)
	if err != nil {
		monitoring.TransitionsTotal.WithLabelValues("entry", outcome(err)).Inc()
		return nil, err
	}
	monitoring.TransitionsTotal.WithLabelValues("entry", "ok").Inc()
	s.notify(ctx, record, now)
	return record, nil
}

// RecordExit closes an in-progress visit. Never-entered or already-closed
// records are rejected with ErrInvalidTransition.
func (s *AccessService) RecordExit(ctx context.Context, actor Actor, id int) (*models.AccessRequest, error) {
	if err := s.checkRecordTenant(ctx, actor, id); err != nil {
		return nil, err
	}
	now := time.Now()
	record, err := s.Requests.RecordExit(ctx, id, actor.UserID, now)
	if err != nil {
		monitoring.TransitionsTotal.WithLabelValues("exit", outcome(err)).Inc()
		return nil, err
	}
	monitoring.TransitionsTotal.WithLabelValues("exit", "ok").Inc()
	s.notify(ctx, record, now)
	return record, nil
}

// Deny rejects a pending request. Terminal.
func (s *AccessService) Deny(ctx context.Context, actor Actor, id int) (*models.AccessRequest, error) {
	if err := s.checkRecordTenant(ctx, actor, id); err != nil {
		return nil, err
	}
	now := time.Now()
	record, err := s.Requests.Deny(ctx, id, actor.UserID, now)
	if err != nil {
		monitoring.TransitionsTotal.WithLabelValues("deny", outcome(err)).Inc()
		return nil, err
	}
	monitoring.TransitionsTotal.WithLabelValues("deny", "ok").Inc()
	s.notify(ctx, record, now)
	return record, nil
}

// Get returns one record after the property check.
func (s *AccessService) Get(ctx context.Context, actor Actor, id int) (*models.AccessRequest, error) {
	return s.getAuthorized(ctx, actor, id)
}

// List returns the caller's property records narrowed by the filter.
func (s *AccessService) List(ctx context.Context, actor Actor, filter *models.AccessRequestFilter) ([]*models.AccessRequest, error) {
	return s.Requests.ListByProperty(ctx, actor.PropertyID, filter)
}

// ListPending returns the attendant dashboard's pending queue.
func (s *AccessService) ListPending(ctx context.Context, actor Actor) ([]*models.AccessRequest, error) {
	return s.Requests.ListPending(ctx, actor.PropertyID)
}

// ListInside returns visitors currently on the property.
func (s *AccessService) ListInside(ctx context.Context, actor Actor) ([]*models.AccessRequest, error) {
	return s.Requests.ListInside(ctx, actor.PropertyID)
}

// ListMine returns the resident's own recent requests.
func (s *AccessService) ListMine(ctx context.Context, actor Actor) ([]*models.AccessRequest, error) {
	return s.Requests.ListByResident(ctx, actor.UserID, 20)
}

// DailySummary returns today's counters for the caller's property.
func (s *AccessService) DailySummary(ctx context.Context, actor Actor) (*models.DailySummary, error) {
	return s.Requests.DailySummary(ctx, actor.PropertyID)
}

func (s *AccessService) getAuthorized(ctx context.Context, actor Actor, id int) (*models.AccessRequest, error) {
	record, err := s.Requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.PropertyID != actor.PropertyID {
		return nil, models.ErrUnauthorizedTenant
	}
	return record, nil
}

func (s *AccessService) checkRecordTenant(ctx context.Context, actor Actor, id int) error {
	_, err := s.getAuthorized(ctx, actor, id)
	return err
}

func (s *AccessService) checkStationTenant(ctx context.Context, actor Actor, stationID int) error {
	propertyID, err := s.Directory.ResolveTenant(ctx, stationID)
	if err != nil {
		return err
	}
	if propertyID != actor.PropertyID {
		return models.ErrUnauthorizedTenant
	}
	return nil
}

func (s *AccessService) resolveProfessional(ctx context.Context, req *models.RegisterDirectRequest) (*models.Professional, error) {
	if req.Document != "" {
		professional, err := s.Professionals.GetByDocument(ctx, req.Document)
		if err == nil {
			return professional, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}
	professional := &models.Professional{
		Name:         req.ProfessionalName,
		Document:     req.Document,
		Company:      req.Company,
		VehiclePlate: req.VehiclePlate,
	}
	if err := s.Professionals.Create(ctx, professional); err != nil {
		return nil, err
	}
	return professional, nil
}

// notify announces a committed transition to the station's room. The commit
// is already durable; anything that goes wrong here is logged and swallowed,
// it never unwinds the transition.
func (s *AccessService) notify(ctx context.Context, record *models.AccessRequest, at time.Time) {
	if s.Publisher == nil || record.GateStationID == nil {
		return
	}
	room, err := s.Directory.ResolveRoom(ctx, *record.GateStationID)
	if err != nil {
		log.Printf("access: resolve room for station %d: %v", *record.GateStationID, err)
		return
	}
	s.Publisher.Publish(room, EventNewAccessRequest, AccessEvent{
		ID:                   record.ID,
		CredentialHolderName: record.ProfessionalName,
		EventTime:            at.Local().Format("15:04:05"),
	})
}

func outcome(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
