package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryState_CanAdvance(t *testing.T) {
	cases := []struct {
		from, to DeliveryState
		want     bool
	}{
		{StateSent, StateDelivered, true},
		{StateSent, StateRead, true}, // delivered may be skipped, never reversed
		{StateDelivered, StateRead, true},

		{StateDelivered, StateSent, false},
		{StateRead, StateDelivered, false},
		{StateRead, StateSent, false},
		{StateSent, StateSent, false},
		{StateRead, StateRead, false},

		{StateFailed, StateDelivered, false},
		{StateSent, StateFailed, false},
	}

	for _, c := range cases {
		assert.Equalf(t, c.want, c.from.CanAdvance(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestMessage_AdvanceStampsTimestampsOnce(t *testing.T) {
	msg := &Message{State: StateSent, CreatedAt: time.Now()}

	deliveredAt := time.Now().Add(time.Second)
	require.True(t, msg.Advance(StateDelivered, deliveredAt))
	require.NotNil(t, msg.DeliveredAt)
	assert.Equal(t, deliveredAt, *msg.DeliveredAt)

	// A repeated advance to the same state is a no-op.
	require.False(t, msg.Advance(StateDelivered, deliveredAt.Add(time.Hour)))
	assert.Equal(t, deliveredAt, *msg.DeliveredAt)

	readAt := deliveredAt.Add(time.Minute)
	require.True(t, msg.Advance(StateRead, readAt))
	require.NotNil(t, msg.ReadAt)
	assert.Equal(t, readAt, *msg.ReadAt)
	assert.Equal(t, StateRead, msg.State)

	// Backwards never.
	assert.False(t, msg.Advance(StateDelivered, readAt.Add(time.Hour)))
	assert.Equal(t, StateRead, msg.State)
}

func TestMessage_AdvanceSkippingDeliveredStampsReadOnly(t *testing.T) {
	msg := &Message{State: StateSent}

	readAt := time.Now()
	require.True(t, msg.Advance(StateRead, readAt))

	assert.Nil(t, msg.DeliveredAt)
	require.NotNil(t, msg.ReadAt)
	assert.Equal(t, readAt, *msg.ReadAt)
}

func TestMessage_Expired(t *testing.T) {
	now := time.Now()

	eternal := &Message{}
	assert.False(t, eternal.Expired(now))

	deadline := now.Add(time.Minute)
	msg := &Message{ExpiresAt: &deadline}
	assert.False(t, msg.Expired(now))
	assert.True(t, msg.Expired(deadline))
	assert.True(t, msg.Expired(deadline.Add(time.Second)))
}

func TestAttachmentKind_Valid(t *testing.T) {
	assert.False(t, AttachmentKind(0).Valid())
	assert.True(t, AttachmentImage.Valid())
	assert.True(t, AttachmentFile.Valid())
	assert.False(t, AttachmentKind(99).Valid())
}
