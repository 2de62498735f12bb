package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(buffer int) *Session {
	return &Session{
		ID:    "test",
		send:  make(chan []byte, buffer),
		rooms: make(map[string]struct{}),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func recv(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func assertSilent(t *testing.T, ch chan []byte) {
	t.Helper()
	select {
	case payload := <-ch:
		t.Fatalf("unexpected delivery: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishReachesOnlyJoinedRoom(t *testing.T) {
	hub := startHub(t)

	a1 := newTestSession(8)
	a2 := newTestSession(8)
	b := newTestSession(8)
	hub.joins <- membership{session: a1, room: "gate:1"}
	hub.joins <- membership{session: a2, room: "gate:1"}
	hub.joins <- membership{session: b, room: "gate:2"}

	hub.Publish("gate:1", "new-access-request", map[string]int{"id": 7})

	var msg Message
	require.NoError(t, json.Unmarshal(recv(t, a1.send), &msg))
	assert.Equal(t, "new-access-request", msg.Event)
	require.NoError(t, json.Unmarshal(recv(t, a2.send), &msg))
	assert.Equal(t, "new-access-request", msg.Event)

	assertSilent(t, b.send)
}

func TestPublishPreservesRoomOrder(t *testing.T) {
	hub := startHub(t)

	sess := newTestSession(8)
	hub.joins <- membership{session: sess, room: "gate:1"}

	for i := 1; i <= 3; i++ {
		hub.Publish("gate:1", "new-access-request", map[string]int{"seq": i})
	}

	for i := 1; i <= 3; i++ {
		var msg Message
		require.NoError(t, json.Unmarshal(recv(t, sess.send), &msg))
		data := msg.Data.(map[string]interface{})
		assert.Equal(t, float64(i), data["seq"])
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := startHub(t)

	sess := newTestSession(8)
	hub.joins <- membership{session: sess, room: "gate:1"}
	hub.joins <- membership{session: sess, room: "gate:1"}

	hub.Publish("gate:1", "new-access-request", nil)

	recv(t, sess.send)
	assertSilent(t, sess.send)
}

func TestLeaveStopsDeliveryAndRejoinResumes(t *testing.T) {
	hub := startHub(t)

	sess := newTestSession(8)
	hub.joins <- membership{session: sess, room: "gate:1"}
	hub.leaves <- membership{session: sess, room: "gate:1"}

	hub.Publish("gate:1", "new-access-request", map[string]int{"id": 1})
	assertSilent(t, sess.send)

	hub.joins <- membership{session: sess, room: "gate:1"}
	hub.Publish("gate:1", "new-access-request", map[string]int{"id": 2})

	var msg Message
	require.NoError(t, json.Unmarshal(recv(t, sess.send), &msg))
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["id"], "events published while away are not replayed")
}

func TestLeaveUnjoinedRoomIsNoop(t *testing.T) {
	hub := startHub(t)

	sess := newTestSession(8)
	hub.leaves <- membership{session: sess, room: "gate:9"}

	hub.joins <- membership{session: sess, room: "gate:1"}
	hub.Publish("gate:1", "new-access-request", nil)
	recv(t, sess.send)
}

func TestUnregisterLeavesEveryRoom(t *testing.T) {
	hub := startHub(t)

	gone := newTestSession(8)
	stays := newTestSession(8)
	hub.joins <- membership{session: gone, room: "gate:1"}
	hub.joins <- membership{session: gone, room: "gate:2"}
	hub.joins <- membership{session: stays, room: "gate:1"}

	hub.unregister <- gone

	// The dropped session's queue is closed once it is out of every room.
	_, open := <-gone.send
	assert.False(t, open)

	hub.Publish("gate:1", "new-access-request", nil)
	recv(t, stays.send)
}

func TestSlowSessionLosesMessagesNotTheBroadcast(t *testing.T) {
	hub := startHub(t)

	slow := newTestSession(1)
	fast := newTestSession(8)
	hub.joins <- membership{session: slow, room: "gate:1"}
	hub.joins <- membership{session: fast, room: "gate:1"}

	hub.Publish("gate:1", "new-access-request", map[string]int{"id": 1})
	hub.Publish("gate:1", "new-access-request", map[string]int{"id": 2})

	// The fast session gets both regardless of the slow one's full queue.
	recv(t, fast.send)
	recv(t, fast.send)

	recv(t, slow.send)
	assertSilent(t, slow.send)
}

func TestPublishToEmptyRoomIsNoop(t *testing.T) {
	hub := startHub(t)

	sess := newTestSession(8)
	hub.joins <- membership{session: sess, room: "gate:1"}

	hub.Publish("gate:99", "new-access-request", nil)
	assertSilent(t, sess.send)
}

func TestPublishUnmarshalablePayloadDropped(t *testing.T) {
	hub := startHub(t)

	sess := newTestSession(8)
	hub.joins <- membership{session: sess, room: "gate:1"}

	hub.Publish("gate:1", "new-access-request", make(chan int))
	assertSilent(t, sess.send)
}
