package realtime

import (
	"context"
	"encoding/json"
	"log"

	"portaria-backend/internal/monitoring"
)

// Message is the wire envelope for room broadcasts.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type membership struct {
	session *Session
	room    string
}

type broadcast struct {
	room    string
	payload []byte
}

// Hub routes broadcasts to the sessions joined to a room. All map access
// happens on the single Run goroutine, so join, leave and publish interleave
// safely, and two sequential publishes to the same room reach every
// subscriber in commit order. Delivery is best-effort: a slow or gone
// session has its message dropped, never the whole broadcast.
type Hub struct {
	register   chan *Session
	unregister chan *Session
	joins      chan membership
	leaves     chan membership
	broadcasts chan broadcast

	// room name -> subscriber set; owned by the Run goroutine.
	rooms map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Session),
		unregister: make(chan *Session),
		joins:      make(chan membership),
		leaves:     make(chan membership),
		broadcasts: make(chan broadcast, 256),
		rooms:      make(map[string]map[*Session]struct{}),
	}
}

// Run owns the room map until ctx is cancelled. Start exactly once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-h.register:
			monitoring.WSSessions.Inc()

		case sess := <-h.unregister:
			h.dropSession(sess)
			monitoring.WSSessions.Dec()

		case m := <-h.joins:
			h.joinRoom(m.session, m.room)

		case m := <-h.leaves:
			h.leaveRoom(m.session, m.room)

		case b := <-h.broadcasts:
			h.deliver(b)
		}
	}
}

// Publish hands a room broadcast to the hub without blocking the caller.
// The ledger commit has already happened by the time this runs; if the hub
// queue is full the event is dropped and counted, never retried.
func (h *Hub) Publish(room, event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Printf("realtime: marshal %q event: %v", event, err)
		return
	}
	select {
	case h.broadcasts <- broadcast{room: room, payload: payload}:
		monitoring.WSPublishedTotal.Inc()
	default:
		monitoring.WSDroppedTotal.Inc()
		log.Printf("realtime: hub queue full, dropping %q broadcast for room %s", event, room)
	}
}

// joinRoom is idempotent: joining a room twice has no additional effect.
func (h *Hub) joinRoom(sess *Session, room string) {
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*Session]struct{})
		h.rooms[room] = set
		monitoring.WSRooms.Inc()
	}
	set[sess] = struct{}{}
	sess.rooms[room] = struct{}{}
}

// leaveRoom removes the session from one room; no error if absent.
func (h *Hub) leaveRoom(sess *Session, room string) {
	set, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(set, sess)
	delete(sess.rooms, room)
	if len(set) == 0 {
		delete(h.rooms, room)
		monitoring.WSRooms.Dec()
	}
}

// dropSession deregisters the session from every room it had joined and
// releases its send queue. Triggered by transport-level disconnect.
func (h *Hub) dropSession(sess *Session) {
	for room := range sess.rooms {
		h.leaveRoom(sess, room)
	}
	close(sess.send)
}

// deliver fans a broadcast out to the room's current subscriber set. The
// set is only ever touched on this goroutine, so the iteration is a
// consistent snapshot at delivery time.
func (h *Hub) deliver(b broadcast) {
	for sess := range h.rooms[b.room] {
		select {
		case sess.send <- b.payload:
		default:
			monitoring.WSDroppedTotal.Inc()
		}
	}
}
