package realtime

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// sendBuffer bounds per-session backlog; a session that falls further
	// behind starts losing messages instead of stalling the hub.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware in front.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// directive is what a connected dashboard sends: join or leave plus the
// room identifier ("gate:<stationID>").
type directive struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// Session is one attendant dashboard connection. It is owned by the
// connection that created it and destroyed on disconnect; the hub then
// deregisters it from every room it had joined.
type Session struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// authorize decides whether this session may watch a room. The check
	// belongs to the edge, not the hub: by the time a join reaches the hub
	// it is already vetted.
	authorize func(room string) bool

	// joined rooms; owned by the hub's Run goroutine.
	rooms map[string]struct{}
}

// ServeWS upgrades the request and runs the session until disconnect.
// authorize is consulted once per join directive.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, authorize func(room string) bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade: %v", err)
		return
	}

	sess := &Session{
		ID:        uuid.NewString(),
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		authorize: authorize,
		rooms:     make(map[string]struct{}),
	}
	hub.register <- sess

	go sess.writePump()
	sess.readPump()
}

// readPump consumes join/leave directives until the connection drops, then
// unregisters the session.
func (s *Session) readPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var d directive
		if err := s.conn.ReadJSON(&d); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: session %s read: %v", s.ID, err)
			}
			return
		}
		if d.Room == "" {
			continue
		}
		switch d.Action {
		case "join":
			if s.authorize != nil && !s.authorize(d.Room) {
				log.Printf("realtime: session %s refused join to %s", s.ID, d.Room)
				continue
			}
			s.hub.joins <- membership{session: s, room: d.Room}
		case "leave":
			s.hub.leaves <- membership{session: s, room: d.Room}
		}
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
