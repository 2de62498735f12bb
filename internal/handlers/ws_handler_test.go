package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portaria-backend/internal/auth"
	"portaria-backend/internal/config"
	"portaria-backend/internal/handlers"
	"portaria-backend/internal/middleware"
	"portaria-backend/internal/models"
	"portaria-backend/internal/realtime"
	"portaria-backend/internal/router"
	"portaria-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsStations struct{ byID map[int]models.GateStation }

func (s *wsStations) Get(ctx context.Context, id int) (*models.GateStation, error) {
	st, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &st, nil
}

func (s *wsStations) ListByProperty(ctx context.Context, propertyID int) ([]models.GateStation, error) {
	var out []models.GateStation
	for _, st := range s.byID {
		if st.PropertyID == propertyID {
			out = append(out, st)
		}
	}
	return out, nil
}

// newWSServer stands up the real router and middleware chain over scripted
// stores, with a live hub behind /ws. Station 1 belongs to property 1 (the
// token's), station 2 to property 2.
func newWSServer(t *testing.T) (*httptest.Server, *realtime.Hub, string) {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "ws-test-secret"
	cfg.JWT.ExpiryHours = 1
	manager := auth.NewJWTManager(cfg)

	propertyID := 1
	token, err := manager.Generate(&models.User{ID: 5, Role: models.RoleAttendant, PropertyID: &propertyID})
	require.NoError(t, err)

	directory := services.NewGateDirectory(&wsStations{byID: map[int]models.GateStation{
		1: {ID: 1, PropertyID: 1, Name: "Main gate"},
		2: {ID: 2, PropertyID: 2, Name: "Other property"},
	}})

	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ledger := &scriptedLedger{record: &models.AccessRequest{ID: 21, PropertyID: 1}}
	service := services.NewAccessService(ledger, scriptedProfessionals{}, directory, hub)

	r := router.New(
		handlers.NewAccessHandler(service),
		handlers.NewGateStationHandler(directory),
		handlers.NewAuthHandler(nil, manager),
		handlers.NewWSHandler(hub, directory),
		nil,
		middleware.NewAuthMiddleware(manager),
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, token
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "upgrade must survive the router's middleware chain")
	t.Cleanup(func() { conn.Close() })
	return conn
}

func joinRoom(t *testing.T, conn *websocket.Conn, room string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "join", "room": room}))
	// The join directive crosses the read pump and the hub's run loop
	// asynchronously; give it time to land before publishing.
	time.Sleep(200 * time.Millisecond)
}

func TestWebsocketEndToEndDelivery(t *testing.T) {
	srv, _, token := newWSServer(t)

	conn := dialWS(t, srv, token)
	joinRoom(t, conn, "gate:1")

	// Attendant registers a walk-in through the HTTP API; the committed
	// request must show up on the station's dashboard feed.
	body, err := json.Marshal(models.RegisterDirectRequest{
		GateStationID:    1,
		ProfessionalName: "Carlos Souza",
		Service:          "Gardening",
	})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/access/register", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg realtime.Message
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.Equal(t, services.EventNewAccessRequest, msg.Event)

	data := msg.Data.(map[string]interface{})
	assert.Equal(t, float64(21), data["id"])
	assert.Equal(t, "Carlos Souza", data["credential_holder_name"])
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, data["event_time"])
}

func TestWebsocketForeignRoomJoinRefused(t *testing.T) {
	srv, hub, token := newWSServer(t)

	conn := dialWS(t, srv, token)
	joinRoom(t, conn, "gate:2")

	hub.Publish("gate:2", services.EventNewAccessRequest, nil)

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "a property 1 token must not receive property 2's feed")
}

func TestWebsocketRejectsMissingToken(t *testing.T) {
	srv, _, _ := newWSServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
