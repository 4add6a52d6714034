package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/im-messaging-service/internal/domain/event"
)

func testEvent(userID uuid.UUID) event.Eventer {
	return event.NewSystemEvent(userID, event.UserOnline, event.PriorityNormal, nil)
}

func TestHub_RegisterSupersedesPreviousSession(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	first := NewConnector(context.Background(), userID, 8)
	superseded := hub.Register(first)
	assert.False(t, superseded)

	second := NewConnector(context.Background(), userID, 8)
	superseded = hub.Register(second)
	assert.True(t, superseded)

	// The newer connection is the one on record.
	conn, ok := hub.Resolve(userID)
	require.True(t, ok)
	assert.Equal(t, second.GetID(), conn.GetID())

	// The superseded mailbox is closed.
	_, open := <-first.Recv()
	assert.False(t, open)
}

func TestHub_UnregisterIgnoresStaleConnID(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	first := NewConnector(context.Background(), userID, 8)
	hub.Register(first)
	staleID := first.GetID()

	// Fast reconnect before the old session's disconnect handler runs.
	second := NewConnector(context.Background(), userID, 8)
	hub.Register(second)

	// The late disconnect must not evict the newer session.
	assert.False(t, hub.Unregister(userID, staleID))
	assert.True(t, hub.IsOnline(userID))

	// A matching conn id does.
	assert.True(t, hub.Unregister(userID, second.GetID()))
	assert.False(t, hub.IsOnline(userID))
}

func TestHub_RoomBroadcast(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	room := userID.String()

	conn := NewConnector(context.Background(), userID, 8)
	hub.Register(conn)
	hub.JoinRoom(room, conn)

	sent := hub.BroadcastRoom(room, testEvent(userID))
	assert.Equal(t, 1, sent)

	ev, open := <-conn.Recv()
	require.True(t, open)
	assert.Equal(t, event.UserOnline, ev.GetKind())

	// Unknown room is a silent zero.
	assert.Zero(t, hub.BroadcastRoom(uuid.NewString(), testEvent(userID)))

	hub.LeaveRoom(room, conn.GetID())
	assert.Zero(t, hub.BroadcastRoom(room, testEvent(userID)))
}

func TestHub_UnregisterEvictsFromRooms(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	room := userID.String()

	conn := NewConnector(context.Background(), userID, 8)
	hub.Register(conn)
	hub.JoinRoom(room, conn)

	require.True(t, hub.Unregister(userID, conn.GetID()))
	assert.Zero(t, hub.BroadcastRoom(room, testEvent(userID)))
}

func TestHub_BroadcastAllSkipsSender(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()
	bob := uuid.New()

	aliceConn := NewConnector(context.Background(), alice, 8)
	bobConn := NewConnector(context.Background(), bob, 8)
	hub.Register(aliceConn)
	hub.Register(bobConn)

	sent := hub.BroadcastAll(testEvent(alice), alice)
	assert.Equal(t, 1, sent)

	select {
	case <-aliceConn.Recv():
		t.Fatal("sender must not receive its own presence broadcast")
	default:
	}

	ev, open := <-bobConn.Recv()
	require.True(t, open)
	assert.Equal(t, event.UserOnline, ev.GetKind())
}

func TestHub_ConcurrentRegisterSingleWinner(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	const sessions = 32
	var wg sync.WaitGroup
	conns := make([]Connector, sessions)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conns[i] = NewConnector(context.Background(), userID, 8)
			hub.Register(conns[i])
		}(i)
	}
	wg.Wait()

	// Exactly one survivor, and it is one of the registered connections.
	winner, ok := hub.Resolve(userID)
	require.True(t, ok)

	found := false
	for _, c := range conns {
		if c.GetID() == winner.GetID() {
			found = true
			break
		}
	}
	assert.True(t, found)
}

func TestHub_ShutdownClosesEverything(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	conn := NewConnector(context.Background(), userID, 8)
	hub.Register(conn)
	hub.JoinRoom(userID.String(), conn)

	hub.Shutdown()

	assert.False(t, hub.IsOnline(userID))
	_, open := <-conn.Recv()
	assert.False(t, open)
	assert.Zero(t, hub.BroadcastRoom(userID.String(), testEvent(userID)))
}
