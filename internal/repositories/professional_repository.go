package repositories

import (
	"context"
	"errors"

	"portaria-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfessionalRepository struct {
	DB *pgxpool.Pool
}

func NewProfessionalRepository(db *pgxpool.Pool) *ProfessionalRepository {
	return &ProfessionalRepository{DB: db}
}

func (r *ProfessionalRepository) Get(ctx context.Context, id int) (*models.Professional, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, COALESCE(document, ''), COALESCE(company, ''), COALESCE(vehicle_plate, ''), created_at
		 FROM professionals WHERE id = $1`, id)
	return scanProfessional(row)
}

// GetByDocument looks up a professional by identity document, the attendant
// walk-in flow. Returns ErrNotFound when no professional matches.
func (r *ProfessionalRepository) GetByDocument(ctx context.Context, document string) (*models.Professional, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, COALESCE(document, ''), COALESCE(company, ''), COALESCE(vehicle_plate, ''), created_at
		 FROM professionals WHERE document = $1`, document)
	return scanProfessional(row)
}

func (r *ProfessionalRepository) Create(ctx context.Context, p *models.Professional) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO professionals(name, document, company, vehicle_plate)
		 VALUES($1, NULLIF($2, ''), $3, $4)
		 RETURNING id, created_at`,
		p.Name, p.Document, p.Company, p.VehiclePlate).
		Scan(&p.ID, &p.CreatedAt)
}

func scanProfessional(row pgx.Row) (*models.Professional, error) {
	var p models.Professional
	err := row.Scan(&p.ID, &p.Name, &p.Document, &p.Company, &p.VehiclePlate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
