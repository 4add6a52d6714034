package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParticipantSettings is one participant's view of a 1:1 conversation.
// Mute and favourite are asymmetric; the disappearing timer is written
// symmetrically into both entries (see Policy service).
type ParticipantSettings struct {
	UserID              uuid.UUID
	IsMuted             bool
	IsFavourite         bool
	DisappearingSeconds int64
}

// Conversation is a 1:1 thread identified by the unordered participant pair.
// The storage layer enforces uniqueness on the normalized pair.
type Conversation struct {
	ID           uuid.UUID
	Participants [2]uuid.UUID // always normalized, see NormalizePair
	Settings     []ParticipantSettings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizePair orders two user ids deterministically so that lookups for
// (a, b) and (b, a) hit the same conversation document.
func NormalizePair(a, b uuid.UUID) [2]uuid.UUID {
	if strings.Compare(a.String(), b.String()) > 0 {
		a, b = b, a
	}
	return [2]uuid.UUID{a, b}
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// SettingsFor returns the settings entry owned by userID, defaulting to
// all-false/zero when the entry does not exist yet.
func (c *Conversation) SettingsFor(userID uuid.UUID) ParticipantSettings {
	for _, s := range c.Settings {
		if s.UserID == userID {
			return s
		}
	}
	return ParticipantSettings{UserID: userID}
}
