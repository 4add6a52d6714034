// Package repository defines the storage contracts consumed by the delivery
// core. Message and conversation persistence is owned by an external
// document store; these interfaces are the seam. Implementations must
// provide atomic single-document read-modify-write (or conditional update)
// primitives — see the mongo and memory packages.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/webitel/im-messaging-service/internal/domain/model"
)

var (
	ErrNotFound      = errors.New("repository: not found")
	ErrDuplicatePair = errors.New("repository: conversation pair already exists")
)

// MessageRepository persists messages and applies the monotonic state
// transitions. Every state-advancing update carries a filter that excludes
// already-advanced documents, which is what makes reconciliation and
// bulk-read idempotent.
type MessageRepository interface {
	// Create persists the message with its pre-computed initial state.
	Create(ctx context.Context, msg *model.Message) error

	// FindByID returns the message, treating an expired one as absent.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error)

	// FindPending returns every unexpired message addressed to receiverID
	// still in the sent state, ordered by creation time.
	FindPending(ctx context.Context, receiverID uuid.UUID) ([]*model.Message, error)

	// MarkDelivered advances the given messages from sent to delivered in
	// one round trip, stamping deliveredAt. Messages already past sent are
	// excluded by filter. Returns the number actually advanced.
	MarkDelivered(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)

	// MarkRead advances every unread message from senderID to readerID in
	// one round trip, stamping readAt. Returns the number advanced.
	MarkRead(ctx context.Context, readerID, senderID uuid.UUID, at time.Time) (int64, error)
}

// SettingsPatch is a partial update of one participant's settings entry.
// Nil fields are left untouched.
type SettingsPatch struct {
	IsMuted     *bool
	IsFavourite *bool
}

// ConversationRepository owns the per-pair settings documents. The
// normalized participant pair is the natural key; a uniqueness invariant
// on it must be enforced by the backing store.
type ConversationRepository interface {
	// FindByParticipants looks up the conversation for the unordered pair.
	FindByParticipants(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error)

	// Ensure returns the conversation for the pair, lazily creating it with
	// both settings entries defaulted when absent.
	Ensure(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error)

	// UpdateSettings applies patch to userID's own entry. The write must be
	// a single atomic document update (last-write-wins on the booleans).
	UpdateSettings(ctx context.Context, convID, userID uuid.UUID, patch SettingsPatch) (*model.Conversation, error)

	// SetDisappearing writes the same timer value into BOTH participants'
	// entries as one atomic update, never two interleavable writes.
	SetDisappearing(ctx context.Context, convID uuid.UUID, seconds int64) (*model.Conversation, error)
}

// BlockRepository queries and toggles the directional block relationship.
// The blocking set lives on the user profile owned by the identity service;
// the delivery core only needs membership answers.
type BlockRepository interface {
	// IsBlocked reports whether owner has target in their block set.
	IsBlocked(ctx context.Context, owner, target uuid.UUID) (bool, error)

	// Toggle flips target's membership in owner's block set and returns
	// the resulting state (true = now blocked).
	Toggle(ctx context.Context, owner, target uuid.UUID) (bool, error)
}
