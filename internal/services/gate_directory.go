package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"portaria-backend/internal/models"
)

// GateStationStore is the read surface the directory needs.
type GateStationStore interface {
	Get(ctx context.Context, id int) (*models.GateStation, error)
	ListByProperty(ctx context.Context, propertyID int) ([]models.GateStation, error)
}

// GateDirectory maps gate stations to their owning property and to the room
// their dashboards subscribe to. Station registration itself is plain CRUD
// outside this core.
type GateDirectory struct {
	Stations GateStationStore
}

func NewGateDirectory(stations GateStationStore) *GateDirectory {
	return &GateDirectory{Stations: stations}
}

// ResolveTenant returns the property owning the station, or
// ErrUnknownGateStation if the id is not registered.
func (d *GateDirectory) ResolveTenant(ctx context.Context, stationID int) (int, error) {
	station, err := d.Stations.Get(ctx, stationID)
	if errors.Is(err, models.ErrNotFound) {
		return 0, models.ErrUnknownGateStation
	}
	if err != nil {
		return 0, err
	}
	return station.PropertyID, nil
}

// ResolveRoom returns the room identifier for a registered station.
func (d *GateDirectory) ResolveRoom(ctx context.Context, stationID int) (string, error) {
	if _, err := d.ResolveTenant(ctx, stationID); err != nil {
		return "", err
	}
	return RoomName(stationID), nil
}

// ListStations returns a property's stations for the dashboard join flow.
func (d *GateDirectory) ListStations(ctx context.Context, propertyID int) ([]models.GateStation, error) {
	return d.Stations.ListByProperty(ctx, propertyID)
}

// RoomName builds the routing key a station's dashboard subscribes to.
func RoomName(stationID int) string {
	return fmt.Sprintf("gate:%d", stationID)
}

// ParseRoom extracts the station id from a "gate:<id>" room identifier.
func ParseRoom(room string) (int, error) {
	rest, ok := strings.CutPrefix(room, "gate:")
	if !ok {
		return 0, fmt.Errorf("%w: malformed room %q", models.ErrInvalidInput, room)
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed room %q", models.ErrInvalidInput, room)
	}
	return id, nil
}
