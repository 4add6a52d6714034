package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePair_OrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	ab := NormalizePair(a, b)
	ba := NormalizePair(b, a)

	assert.Equal(t, ab, ba)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ab[:])
}

func TestConversation_SettingsForDefaultsToZero(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	conv := &Conversation{
		Participants: NormalizePair(a, b),
		Settings: []ParticipantSettings{
			{UserID: a, IsMuted: true, DisappearingSeconds: 86400},
		},
	}

	own := conv.SettingsFor(a)
	assert.True(t, own.IsMuted)
	assert.EqualValues(t, 86400, own.DisappearingSeconds)

	// The peer never touched their settings: all-false view, not an error.
	other := conv.SettingsFor(b)
	assert.Equal(t, ParticipantSettings{UserID: b}, other)

	assert.True(t, conv.HasParticipant(a))
	assert.True(t, conv.HasParticipant(b))
	assert.False(t, conv.HasParticipant(uuid.New()))
}
