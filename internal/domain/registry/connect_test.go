package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/im-messaging-service/internal/domain/event"
)

func prioEvent(priority event.EventPriority) event.Eventer {
	return event.NewSystemEvent(uuid.New(), event.UserTyping, priority, nil)
}

func TestConnect_SendAndRecv(t *testing.T) {
	conn := NewConnector(context.Background(), uuid.New(), 4)
	defer conn.Close()

	require.True(t, conn.Send(prioEvent(event.PriorityNormal), time.Millisecond))

	ev, open := <-conn.Recv()
	require.True(t, open)
	assert.Equal(t, event.UserTyping, ev.GetKind())
}

func TestConnect_BackpressureShedsLowPriority(t *testing.T) {
	conn := NewConnector(context.Background(), uuid.New(), 1)
	defer conn.Close()

	require.True(t, conn.Send(prioEvent(event.PriorityNormal), time.Millisecond))

	// Mailbox full: a low-priority typing indicator is dropped outright.
	assert.False(t, conn.Send(prioEvent(event.PriorityLow), time.Millisecond))

	// The queued event survives.
	ev := <-conn.Recv()
	assert.Equal(t, event.PriorityNormal, ev.GetPriority())
}

func TestConnect_BackpressureEvictsLowerPriority(t *testing.T) {
	conn := NewConnector(context.Background(), uuid.New(), 1)
	defer conn.Close()

	require.True(t, conn.Send(prioEvent(event.PriorityLow), time.Millisecond))

	// A message event outranks the queued chatter and takes its slot.
	assert.True(t, conn.Send(prioEvent(event.PriorityHigh), time.Millisecond))

	ev := <-conn.Recv()
	assert.Equal(t, event.PriorityHigh, ev.GetPriority())
}

func TestConnect_CloseIsIdempotent(t *testing.T) {
	conn := NewConnector(context.Background(), uuid.New(), 4)
	conn.Close()
	assert.NotPanics(t, conn.Close)
}

func TestConnect_CapturedMailboxSurvivesReuse(t *testing.T) {
	conn := NewConnector(context.Background(), uuid.New(), 4)
	recv := conn.Recv()
	conn.Close()

	// Close recycles the object, so the next session may be handed the
	// same one with a fresh mailbox. A pump that captured the old channel
	// must keep observing the close signal, never the new session's events.
	fresh := NewConnector(context.Background(), uuid.New(), 4)
	defer fresh.Close()

	if fresh == conn {
		require.NotEqual(t, recv, fresh.Recv())
	}
	require.True(t, fresh.Send(prioEvent(event.PriorityNormal), time.Millisecond))

	_, open := <-recv
	assert.False(t, open)
}
