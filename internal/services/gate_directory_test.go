package services_test

import (
	"context"
	"testing"

	"portaria-backend/internal/models"
	"portaria-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDirectory() *services.GateDirectory {
	return services.NewGateDirectory(&memoryStations{byID: map[int]models.GateStation{
		7:  {ID: 7, PropertyID: 3, Name: "Service gate"},
		12: {ID: 12, PropertyID: 3, Name: "Main gate"},
	}})
}

func TestResolveTenant(t *testing.T) {
	d := newDirectory()

	propertyID, err := d.ResolveTenant(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, propertyID)
}

func TestResolveTenantUnknownStation(t *testing.T) {
	d := newDirectory()

	_, err := d.ResolveTenant(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrUnknownGateStation)
}

func TestResolveRoom(t *testing.T) {
	d := newDirectory()

	room, err := d.ResolveRoom(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "gate:12", room)

	_, err = d.ResolveRoom(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrUnknownGateStation)
}

func TestRoomNameParseRoomRoundTrip(t *testing.T) {
	for _, id := range []int{1, 42, 100000} {
		parsed, err := services.ParseRoom(services.RoomName(id))
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestParseRoomMalformed(t *testing.T) {
	for _, room := range []string{"", "gate:", "gate:abc", "gate:-1", "gate:0", "door:5", "5"} {
		_, err := services.ParseRoom(room)
		assert.ErrorIs(t, err, models.ErrInvalidInput, "room %q", room)
	}
}

func TestListStations(t *testing.T) {
	d := newDirectory()

	stations, err := d.ListStations(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, stations, 2)

	stations, err = d.ListStations(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, stations)
}
