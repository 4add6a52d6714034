package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	memoryrepo "github.com/webitel/im-messaging-service/internal/repository/memory"
)

func newPolicy() *PolicyService {
	return NewPolicyService(memoryrepo.NewConversationRepository(), memoryrepo.NewBlockRepository())
}

func TestPolicy_DefaultSettingsWithoutConversation(t *testing.T) {
	p := newPolicy()

	settings, err := p.GetSettings(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.False(t, settings.IsMuted)
	assert.False(t, settings.IsFavourite)
	assert.Zero(t, settings.DisappearingSeconds)
}

func TestPolicy_ToggleMuteIsAsymmetric(t *testing.T) {
	p := newPolicy()
	alice := uuid.New()
	bob := uuid.New()

	settings, err := p.ToggleMute(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.True(t, settings.IsMuted)

	// Bob's view of the same conversation is untouched.
	bobView, err := p.GetSettings(context.Background(), bob, alice)
	require.NoError(t, err)
	assert.False(t, bobView.IsMuted)

	// Toggling back.
	settings, err = p.ToggleMute(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.False(t, settings.IsMuted)
}

func TestPolicy_ToggleFavouriteFlips(t *testing.T) {
	p := newPolicy()
	alice := uuid.New()
	bob := uuid.New()

	settings, err := p.ToggleFavourite(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.True(t, settings.IsFavourite)

	settings, err = p.ToggleFavourite(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.False(t, settings.IsFavourite)
}

// A timer set by either party governs both directions: the write lands in
// both participants' entries atomically.
func TestPolicy_DisappearingTimerIsSharedBetweenParticipants(t *testing.T) {
	p := newPolicy()
	alice := uuid.New()
	bob := uuid.New()

	_, err := p.SetDisappearingTimer(context.Background(), alice, bob, 86400)
	require.NoError(t, err)

	aliceView, err := p.GetSettings(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 86400, aliceView.DisappearingSeconds)

	bobView, err := p.GetSettings(context.Background(), bob, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 86400, bobView.DisappearingSeconds)

	// Either party can clear it for both.
	_, err = p.SetDisappearingTimer(context.Background(), bob, alice, 0)
	require.NoError(t, err)

	aliceView, err = p.GetSettings(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Zero(t, aliceView.DisappearingSeconds)
}

func TestPolicy_SelfConversationRejected(t *testing.T) {
	p := newPolicy()
	me := uuid.New()

	_, err := p.ToggleMute(context.Background(), me, me)
	assert.ErrorIs(t, err, ErrSelfConversation)

	_, err = p.SetDisappearingTimer(context.Background(), me, me, 60)
	assert.ErrorIs(t, err, ErrSelfConversation)

	_, err = p.ToggleBlock(context.Background(), me, me)
	assert.ErrorIs(t, err, ErrSelfConversation)

	err = p.CheckSendAllowed(context.Background(), me, me)
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestPolicy_CheckSendAllowedChecksBothDirections(t *testing.T) {
	p := newPolicy()
	alice := uuid.New()
	bob := uuid.New()

	require.NoError(t, p.CheckSendAllowed(context.Background(), alice, bob))

	_, err := p.ToggleBlock(context.Background(), alice, bob)
	require.NoError(t, err)

	// The blocker cannot send either.
	assert.ErrorIs(t, p.CheckSendAllowed(context.Background(), alice, bob), ErrBlocked)
	assert.ErrorIs(t, p.CheckSendAllowed(context.Background(), bob, alice), ErrBlocked)

	_, err = p.ToggleBlock(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.NoError(t, p.CheckSendAllowed(context.Background(), alice, bob))
}

func TestPolicy_ComputeExpiry(t *testing.T) {
	p := newPolicy()
	alice := uuid.New()
	bob := uuid.New()

	// No conversation, no timer, no expiry.
	expiry, err := p.ComputeExpiry(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Nil(t, expiry)

	_, err = p.SetDisappearingTimer(context.Background(), bob, alice, 600)
	require.NoError(t, err)

	// The cache was invalidated by the mutation: the fresh timer applies,
	// even though BOB set it and ALICE is sending.
	expiry, err = p.ComputeExpiry(context.Background(), alice, bob)
	require.NoError(t, err)
	require.NotNil(t, expiry)
	assert.True(t, within(*expiry, time.Now().Add(10*time.Minute), 5*time.Second))
}
