package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portaria-backend/internal/auth"
	"portaria-backend/internal/config"
	"portaria-backend/internal/handlers"
	"portaria-backend/internal/middleware"
	"portaria-backend/internal/models"
	"portaria-backend/internal/router"
	"portaria-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLedger returns canned results so the handler tests can exercise
// routing, auth plumbing and status mapping without a database.
type scriptedLedger struct {
	record *models.AccessRequest
	err    error
}

func (s *scriptedLedger) result() (*models.AccessRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec := *s.record
	return &rec, nil
}

func (s *scriptedLedger) Create(ctx context.Context, req *models.AccessRequest) error {
	if s.err != nil {
		return s.err
	}
	req.ID = s.record.ID
	req.State = models.StateRequested
	req.CreatedAt = time.Now()
	return nil
}

func (s *scriptedLedger) Get(ctx context.Context, id int) (*models.AccessRequest, error) {
	return s.result()
}

func (s *scriptedLedger) Approve(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error) {
	return s.result()
}

func (s *scriptedLedger) RecordEntry(ctx context.Context, id, actorID, stationID int, at time.Time) (*models.AccessRequest, error) {
	return s.result()
}

func (s *scriptedLedger) RecordExit(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error) {
	return s.result()
}

func (s *scriptedLedger) Deny(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error) {
	return s.result()
}

func (s *scriptedLedger) ListByProperty(ctx context.Context, propertyID int, filter *models.AccessRequestFilter) ([]*models.AccessRequest, error) {
	return nil, s.err
}

func (s *scriptedLedger) ListPending(ctx context.Context, propertyID int) ([]*models.AccessRequest, error) {
	rec, err := s.result()
	if err != nil {
		return nil, err
	}
	return []*models.AccessRequest{rec}, nil
}

func (s *scriptedLedger) ListInside(ctx context.Context, propertyID int) ([]*models.AccessRequest, error) {
	return nil, s.err
}

func (s *scriptedLedger) ListByResident(ctx context.Context, residentUserID, limit int) ([]*models.AccessRequest, error) {
	return nil, s.err
}

func (s *scriptedLedger) DailySummary(ctx context.Context, propertyID int) (*models.DailySummary, error) {
	return &models.DailySummary{}, s.err
}

type scriptedStations struct{ station *models.GateStation }

func (s *scriptedStations) Get(ctx context.Context, id int) (*models.GateStation, error) {
	if s.station == nil || s.station.ID != id {
		return nil, models.ErrNotFound
	}
	return s.station, nil
}

func (s *scriptedStations) ListByProperty(ctx context.Context, propertyID int) ([]models.GateStation, error) {
	if s.station == nil || s.station.PropertyID != propertyID {
		return nil, nil
	}
	return []models.GateStation{*s.station}, nil
}

type scriptedProfessionals struct{}

func (scriptedProfessionals) Get(ctx context.Context, id int) (*models.Professional, error) {
	return nil, models.ErrNotFound
}

func (scriptedProfessionals) GetByDocument(ctx context.Context, document string) (*models.Professional, error) {
	return nil, models.ErrNotFound
}

func (scriptedProfessionals) Create(ctx context.Context, p *models.Professional) error {
	p.ID = 1
	return nil
}

// newTestServer builds the full router over scripted stores, plus a token
// for an attendant of property 1.
func newTestServer(t *testing.T, ledger *scriptedLedger) (http.Handler, string) {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "handler-test-secret"
	cfg.JWT.ExpiryHours = 1
	manager := auth.NewJWTManager(cfg)

	propertyID := 1
	token, err := manager.Generate(&models.User{ID: 5, Role: models.RoleAttendant, PropertyID: &propertyID})
	require.NoError(t, err)

	directory := services.NewGateDirectory(&scriptedStations{
		station: &models.GateStation{ID: 1, PropertyID: 1, Name: "Main gate"},
	})
	service := services.NewAccessService(ledger, scriptedProfessionals{}, directory, nil)

	r := router.New(
		handlers.NewAccessHandler(service),
		handlers.NewGateStationHandler(directory),
		handlers.NewAuthHandler(nil, manager),
		nil, // websocket route is not exercised here
		nil,
		middleware.NewAuthMiddleware(manager),
	)
	return r, token
}

func doRequest(handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestApproveRoundTrip(t *testing.T) {
	ledger := &scriptedLedger{record: &models.AccessRequest{
		ID: 8, PropertyID: 1, State: models.StateApproved, ProfessionalName: "Carlos Souza",
	}}
	handler, token := newTestServer(t, ledger)

	rec := doRequest(handler, http.MethodPost, "/api/access/8/approve", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.AccessRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StateApproved, got.State)
	assert.Equal(t, 8, got.ID)
}

// conflictAfterGet lets Get succeed but fails the transition, the shape a
// lost CAS race takes at the handler.
type conflictAfterGet struct {
	*scriptedLedger
}

func (c *conflictAfterGet) Approve(ctx context.Context, id, actorID int, at time.Time) (*models.AccessRequest, error) {
	return nil, models.ErrInvalidTransition
}

func TestLostRaceMapsTo409(t *testing.T) {
	ledger := &scriptedLedger{record: &models.AccessRequest{ID: 8, PropertyID: 1, State: models.StateCompleted}}

	cfg := &config.Config{}
	cfg.JWT.Secret = "handler-test-secret"
	cfg.JWT.ExpiryHours = 1
	manager := auth.NewJWTManager(cfg)
	propertyID := 1
	token, err := manager.Generate(&models.User{ID: 5, Role: models.RoleAttendant, PropertyID: &propertyID})
	require.NoError(t, err)

	directory := services.NewGateDirectory(&scriptedStations{
		station: &models.GateStation{ID: 1, PropertyID: 1, Name: "Main gate"},
	})
	service := services.NewAccessService(&conflictAfterGet{ledger}, scriptedProfessionals{}, directory, nil)
	r := router.New(
		handlers.NewAccessHandler(service),
		handlers.NewGateStationHandler(directory),
		handlers.NewAuthHandler(nil, manager),
		nil,
		nil,
		middleware.NewAuthMiddleware(manager),
	)

	rec := doRequest(r, http.MethodPost, "/api/access/8/approve", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnknownRecordMapsTo404(t *testing.T) {
	ledger := &scriptedLedger{err: models.ErrNotFound}
	handler, token := newTestServer(t, ledger)

	rec := doRequest(handler, http.MethodPost, "/api/access/404/approve", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForeignPropertyMapsTo403(t *testing.T) {
	ledger := &scriptedLedger{record: &models.AccessRequest{ID: 8, PropertyID: 2, State: models.StateRequested}}
	handler, token := newTestServer(t, ledger)

	rec := doRequest(handler, http.MethodPost, "/api/access/8/exit", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterDirectRoundTrip(t *testing.T) {
	ledger := &scriptedLedger{record: &models.AccessRequest{ID: 11, PropertyID: 1}}
	handler, token := newTestServer(t, ledger)

	rec := doRequest(handler, http.MethodPost, "/api/access/register", token, models.RegisterDirectRequest{
		GateStationID:    1,
		ProfessionalName: "Carlos Souza",
		Service:          "Gardening",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.AccessRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 11, got.ID)
	assert.Equal(t, models.StateRequested, got.State)
}

func TestRegisterDirectValidationMapsTo400(t *testing.T) {
	ledger := &scriptedLedger{record: &models.AccessRequest{ID: 11, PropertyID: 1}}
	handler, token := newTestServer(t, ledger)

	rec := doRequest(handler, http.MethodPost, "/api/access/register", token, models.RegisterDirectRequest{
		GateStationID: 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLifecycleRoutesRequireAuth(t *testing.T) {
	ledger := &scriptedLedger{record: &models.AccessRequest{ID: 8, PropertyID: 1}}
	handler, _ := newTestServer(t, ledger)

	rec := doRequest(handler, http.MethodPost, "/api/access/8/approve", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResidentRouteRejectsAttendant(t *testing.T) {
	ledger := &scriptedLedger{record: &models.AccessRequest{ID: 8, PropertyID: 1}}
	handler, token := newTestServer(t, ledger)

	rec := doRequest(handler, http.MethodPost, "/api/access/pre-authorize", token,
		models.PreAuthorizeRequest{Service: "Cleaning"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStationsList(t *testing.T) {
	ledger := &scriptedLedger{record: &models.AccessRequest{ID: 8, PropertyID: 1}}
	handler, token := newTestServer(t, ledger)

	rec := doRequest(handler, http.MethodGet, "/api/stations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stations []models.GateStation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stations))
	require.Len(t, stations, 1)
	assert.Equal(t, "Main gate", stations[0].Name)
}
