package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/im-messaging-service/internal/domain/event"
	"github.com/webitel/im-messaging-service/internal/domain/model"
)

func TestSend_OnlineReceiverGetsDeliveredImmediately(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	receiver := uuid.New()
	f.connect(receiver)

	msg, err := f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "hello"})
	require.NoError(t, err)

	// Presence at persistence time front-loads the delivered state.
	assert.Equal(t, model.StateDelivered, msg.State)
	require.NotNil(t, msg.DeliveredAt)

	// Recipient event plus a delivered receipt for the sender.
	require.Len(t, f.fanout.byKind(event.MessageReceived), 1)
	receipts := f.fanout.byKind(event.MessageDelivered)
	require.Len(t, receipts, 1)
	assert.Equal(t, sender, receipts[0].GetUserID())
}

func TestSend_OfflineReceiverStaysSent(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	receiver := uuid.New()

	msg, err := f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, model.StateSent, msg.State)
	assert.Nil(t, msg.DeliveredAt)

	assert.Len(t, f.fanout.byKind(event.MessageReceived), 1)
	assert.Empty(t, f.fanout.byKind(event.MessageDelivered))
}

func TestSend_BlockedInEitherDirectionIsTotalRejection(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	receiver := uuid.New()

	// Receiver blocks sender: the sender's outbound attempt dies.
	blocked, err := f.policy.ToggleBlock(context.Background(), receiver, sender)
	require.NoError(t, err)
	require.True(t, blocked)

	_, err = f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "hi"})
	assert.ErrorIs(t, err, ErrBlocked)

	// And symmetrically for the blocker's own sends.
	_, err = f.messenger.Send(context.Background(), receiver, sender, SendInput{Text: "hi"})
	assert.ErrorIs(t, err, ErrBlocked)

	// Nothing persisted, nothing fanned out.
	pending, err := f.messages.FindPending(context.Background(), receiver)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Empty(t, f.fanout.events)

	// Unblocking restores the lane.
	blocked, err = f.policy.ToggleBlock(context.Background(), receiver, sender)
	require.NoError(t, err)
	require.False(t, blocked)

	_, err = f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "hi"})
	assert.NoError(t, err)
}

func TestSend_MutedReceiverStillGetsDelivery(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	receiver := uuid.New()
	f.connect(receiver)

	// Mute shapes client-side notifications only; delivery is unaffected.
	_, err := f.policy.ToggleMute(context.Background(), receiver, sender)
	require.NoError(t, err)

	msg, err := f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "quiet"})
	require.NoError(t, err)
	assert.Equal(t, model.StateDelivered, msg.State)
	assert.Len(t, f.fanout.byKind(event.MessageReceived), 1)
}

func TestSend_SelfIsRejected(t *testing.T) {
	f := newFixture()
	me := uuid.New()

	_, err := f.messenger.Send(context.Background(), me, me, SendInput{Text: "echo"})
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestSend_DisappearingTimerStampsExpiry(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	receiver := uuid.New()

	_, err := f.policy.SetDisappearingTimer(context.Background(), sender, receiver, 3600)
	require.NoError(t, err)

	msg, err := f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "poof"})
	require.NoError(t, err)

	require.NotNil(t, msg.ExpiresAt)
	assert.True(t, within(*msg.ExpiresAt, time.Now().Add(time.Hour), 5*time.Second))
}

func TestMarkRead_BulkAdvanceEmitsSingleReceipt(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	reader := uuid.New()

	for range 3 {
		_, err := f.messenger.Send(context.Background(), sender, reader, SendInput{Text: "msg"})
		require.NoError(t, err)
	}
	f.fanout.reset()

	n, err := f.messenger.MarkRead(context.Background(), reader, sender)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// One bulk receipt, not three.
	receipts := f.fanout.byKind(event.MessagesRead)
	require.Len(t, receipts, 1)
	assert.Equal(t, sender, receipts[0].GetUserID())

	payload, ok := receipts[0].GetPayload().(*model.ReadPayload)
	require.True(t, ok)
	assert.Equal(t, reader, payload.ReaderID)

	// Re-reading an already-read thread is a silent no-op.
	f.fanout.reset()
	n, err = f.messenger.MarkRead(context.Background(), reader, sender)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.fanout.events)
}

func TestPushPersisted_ForeignMessageRejected(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	receiver := uuid.New()

	msg, err := f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "mine"})
	require.NoError(t, err)

	err = f.messenger.PushPersisted(context.Background(), receiver, msg.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestPushPersisted_ReadMessageNeverReportsDelivered(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	receiver := uuid.New()

	msg, err := f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "seen"})
	require.NoError(t, err)
	_, err = f.messenger.MarkRead(context.Background(), receiver, sender)
	require.NoError(t, err)
	f.fanout.reset()

	// A late delivery push for an already-read message must not roll the
	// sender's view back to delivered.
	require.NoError(t, f.messenger.PushPersisted(context.Background(), sender, msg.ID))

	assert.Empty(t, f.fanout.byKind(event.MessageDelivered))
	receipts := f.fanout.byKind(event.MessagesRead)
	require.Len(t, receipts, 1)
	assert.Equal(t, sender, receipts[0].GetUserID())
}

func TestPushPersisted_AdvancesOnceReceiverComesOnline(t *testing.T) {
	f := newFixture()
	sender := uuid.New()
	receiver := uuid.New()

	msg, err := f.messenger.Send(context.Background(), sender, receiver, SendInput{Text: "later"})
	require.NoError(t, err)
	require.Equal(t, model.StateSent, msg.State)
	f.fanout.reset()

	f.connect(receiver)
	require.NoError(t, f.messenger.PushPersisted(context.Background(), sender, msg.ID))

	stored, err := f.messages.FindByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDelivered, stored.State)

	assert.Len(t, f.fanout.byKind(event.MessageReceived), 1)
	assert.Len(t, f.fanout.byKind(event.MessageDelivered), 1)

	// Repeating the push re-emits events but never regresses state.
	f.fanout.reset()
	require.NoError(t, f.messenger.PushPersisted(context.Background(), sender, msg.ID))
	stored, err = f.messages.FindByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDelivered, stored.State)
	assert.Len(t, f.fanout.byKind(event.MessageDelivered), 1)
}
