package repositories

import (
	"context"
	"errors"

	"portaria-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GateStationRepository struct {
	DB *pgxpool.Pool
}

func NewGateStationRepository(db *pgxpool.Pool) *GateStationRepository {
	return &GateStationRepository{DB: db}
}

func (r *GateStationRepository) Get(ctx context.Context, id int) (*models.GateStation, error) {
	var s models.GateStation
	err := r.DB.QueryRow(ctx,
		`SELECT id, property_id, name, created_at FROM gate_stations WHERE id = $1`, id).
		Scan(&s.ID, &s.PropertyID, &s.Name, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GateStationRepository) ListByProperty(ctx context.Context, propertyID int) ([]models.GateStation, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, property_id, name, created_at FROM gate_stations
		 WHERE property_id = $1 ORDER BY name`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.GateStation
	for rows.Next() {
		var s models.GateStation
		if err := rows.Scan(&s.ID, &s.PropertyID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}
