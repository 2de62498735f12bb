package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portaria-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accessRequestColumns = `id, property_id, gate_station_id, resident_user_id, professional_id,
	COALESCE(professional_name, ''), COALESCE(service, ''), COALESCE(company, ''), COALESCE(notes, ''),
	channel, state, requested_for, approved_by_user_id, approved_at, entry_by_user_id, entered_at,
	exit_by_user_id, exited_at, denied_by_user_id, denied_at, created_at, updated_at`

// AccessRequestRepository is the durable side of the access ledger. Every
// state transition is a single UPDATE conditioned on the current state, so
// two concurrent transitions on the same record race only at the commit
// point and exactly one wins.
type AccessRequestRepository struct {
	DB *pgxpool.Pool
}

func NewAccessRequestRepository(db *pgxpool.Pool) *AccessRequestRepository {
	return &AccessRequestRepository{DB: db}
}

func (r *AccessRequestRepository) Create(ctx context.Context, req *models.AccessRequest) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO access_requests(property_id, gate_station_id, resident_user_id, professional_id,
		     professional_name, service, company, notes, channel, state, requested_for)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, state, created_at, updated_at`,
		req.PropertyID, req.GateStationID, req.ResidentUserID, req.ProfessionalID,
		req.ProfessionalName, req.Service, req.Company, req.Notes, req.Channel,
		models.StateRequested, req.RequestedFor).
		Scan(&req.ID, &req.State, &req.CreatedAt, &req.UpdatedAt)
}

func (r *AccessRequestRepository) Get(ctx context.Context, id int) (*models.AccessRequest, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+accessRequestColumns+` FROM access_requests WHERE id = $1`, id)
	req, err := scanAccessRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return req, err
}

// Approve moves requested -> approved. The WHERE clause on the stored state
// is the compare-and-set: zero rows means somebody else already moved the
// record, and the caller gets ErrInvalidTransition (or ErrNotFound when the
// id never existed).
func (r *AccessRequestRepository) Approve(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE access_requests
		 SET state = $1, approved_by_user_id = $2, approved_at = $3, updated_at = NOW()
		 WHERE id = $4 AND state = $5
		 RETURNING `+accessRequestColumns,
		models.StateApproved, actorID, at, id, models.StateRequested)
	return r.transitioned(ctx, row, id)
}

// RecordEntry moves requested|approved -> in_progress and pins the gate
// station if the record does not have one yet. An already-set station is
// never overwritten.
func (r *AccessRequestRepository) RecordEntry(ctx context.Context, id, actorID, stationID int, at time.Time) (*models.AccessRequest, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE access_requests
		 SET state = $1, entry_by_user_id = $2, entered_at = $3,
		     gate_station_id = COALESCE(gate_station_id, $4), updated_at = NOW()
		 WHERE id = $5 AND state IN ($6, $7)
		 RETURNING `+accessRequestColumns,
		models.StateInProgress, actorID, at, stationID, id,
		models.StateRequested, models.StateApproved)
	return r.transitioned(ctx, row, id)
}

// RecordExit moves in_progress -> completed. Double exits lose the CAS and
// surface ErrInvalidTransition instead of being silently accepted.
func (r *AccessRequestRepository) RecordExit(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE access_requests
		 SET state = $1, exit_by_user_id = $2, exited_at = $3, updated_at = NOW()
		 WHERE id = $4 AND state = $5
		 RETURNING `+accessRequestColumns,
		models.StateCompleted, actorID, at, id, models.StateInProgress)
	return r.transitioned(ctx, row, id)
}

// Deny moves requested -> denied.
func (r *AccessRequestRepository) Deny(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE access_requests
		 SET state = $1, denied_by_user_id = $2, denied_at = $3, updated_at = NOW()
		 WHERE id = $4 AND state = $5
		 RETURNING `+accessRequestColumns,
		models.StateDenied, actorID, at, id, models.StateRequested)
	return r.transitioned(ctx, row, id)
}

// ExpireStale moves requested records created before the cutoff to expired.
// Used by the sweeper; returns the number of records expired.
func (r *AccessRequestRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE access_requests SET state = $1, updated_at = NOW()
		 WHERE state = $2 AND created_at < $3`,
		models.StateExpired, models.StateRequested, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// transitioned turns the zero-row CAS outcome into the right sentinel by
// checking whether the record exists at all.
func (r *AccessRequestRepository) transitioned(ctx context.Context, row pgx.Row, id int) (*models.AccessRequest, error) {
	req, err := scanAccessRequest(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	var exists bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM access_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrNotFound
	}
	return nil, models.ErrInvalidTransition
}

// ListByProperty returns requests for one property, newest first, narrowed
// by the optional filter. These are the read-only dashboard/report queries.
func (r *AccessRequestRepository) ListByProperty(ctx context.Context, propertyID int, filter *models.AccessRequestFilter) ([]*models.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE property_id = $1`
	args := []interface{}{propertyID}

	if filter != nil {
		if filter.GateStationID != nil {
			args = append(args, *filter.GateStationID)
			query += fmt.Sprintf(" AND gate_station_id = $%d", len(args))
		}
		if filter.State != nil {
			args = append(args, *filter.State)
			query += fmt.Sprintf(" AND state = $%d", len(args))
		}
		if filter.From != nil {
			args = append(args, *filter.From)
			query += fmt.Sprintf(" AND created_at >= $%d", len(args))
		}
		if filter.To != nil {
			args = append(args, *filter.To)
			query += fmt.Sprintf(" AND created_at < $%d", len(args))
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccessRequests(rows)
}

// ListPending returns pre-authorizations awaiting action, oldest first, the
// way the attendant dashboard presents them.
func (r *AccessRequestRepository) ListPending(ctx context.Context, propertyID int) ([]*models.AccessRequest, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+accessRequestColumns+` FROM access_requests
		 WHERE property_id = $1 AND state IN ($2, $3)
		 ORDER BY created_at`, propertyID, models.StateRequested, models.StateApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccessRequests(rows)
}

// ListInside returns visitors currently on the property (entered, no exit).
func (r *AccessRequestRepository) ListInside(ctx context.Context, propertyID int) ([]*models.AccessRequest, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+accessRequestColumns+` FROM access_requests
		 WHERE property_id = $1 AND state = $2
		 ORDER BY entered_at DESC`, propertyID, models.StateInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccessRequests(rows)
}

// ListByResident returns a resident's recent requests for their dashboard.
func (r *AccessRequestRepository) ListByResident(ctx context.Context, residentUserID, limit int) ([]*models.AccessRequest, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+accessRequestColumns+` FROM access_requests
		 WHERE resident_user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, residentUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccessRequests(rows)
}

// DailySummary returns today's counters for the property dashboard header.
func (r *AccessRequestRepository) DailySummary(ctx context.Context, propertyID int) (*models.DailySummary, error) {
	var s models.DailySummary
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE state IN ($2, $3)),
		        COUNT(*) FILTER (WHERE state = $4),
		        COUNT(*) FILTER (WHERE state = $5)
		 FROM access_requests
		 WHERE property_id = $1 AND created_at >= CURRENT_DATE`,
		propertyID, models.StateRequested, models.StateApproved,
		models.StateInProgress, models.StateCompleted).
		Scan(&s.Total, &s.Pending, &s.Inside, &s.Completed)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanAccessRequest(row pgx.Row) (*models.AccessRequest, error) {
	var req models.AccessRequest
	err := row.Scan(&req.ID, &req.PropertyID, &req.GateStationID, &req.ResidentUserID,
		&req.ProfessionalID, &req.ProfessionalName, &req.Service, &req.Company, &req.Notes,
		&req.Channel, &req.State, &req.RequestedFor, &req.ApprovedByUserID, &req.ApprovedAt,
		&req.EntryByUserID, &req.EnteredAt, &req.ExitByUserID, &req.ExitedAt,
		&req.DeniedByUserID, &req.DeniedAt, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func collectAccessRequests(rows pgx.Rows) ([]*models.AccessRequest, error) {
	var out []*models.AccessRequest
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
