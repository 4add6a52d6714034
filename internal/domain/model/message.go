package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryState is the lifecycle stage of a message.
//
// [MONOTONIC] States only move forward: sent -> delivered -> read.
// 'failed' is a parallel terminal state reachable only before the message
// is durably persisted (e.g. attachment upload failure); a persisted
// message can never become failed.
type DeliveryState string

const (
	StateSent      DeliveryState = "sent"
	StateDelivered DeliveryState = "delivered"
	StateRead      DeliveryState = "read"
	StateFailed    DeliveryState = "failed"
)

// rank orders the forward-only progression. failed sits outside the chain.
func (s DeliveryState) rank() int {
	switch s {
	case StateSent:
		return 1
	case StateDelivered:
		return 2
	case StateRead:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the state is one of the known values.
func (s DeliveryState) Valid() bool {
	switch s {
	case StateSent, StateDelivered, StateRead, StateFailed:
		return true
	}
	return false
}

// CanAdvance reports whether a transition from s to target is a strictly
// forward move. Advancing to the current or an earlier state is a no-op
// for callers, never an error.
func (s DeliveryState) CanAdvance(target DeliveryState) bool {
	if s == StateFailed || target == StateFailed {
		return false
	}
	return target.rank() > s.rank()
}

//go:generate stringer -type=AttachmentKind
type AttachmentKind int16

const (
	// [ZERO_VALUE_GUARD] start from 1 to distinguish from uninitialized data
	AttachmentImage AttachmentKind = iota + 1
	AttachmentVideo
	AttachmentAudio
	AttachmentDocument
	AttachmentFile
)

// Valid reports whether the kind is one of the known values.
func (k AttachmentKind) Valid() bool {
	return k >= AttachmentImage && k <= AttachmentFile
}

// Attachment is the opaque media descriptor carried by a message.
// Upload and URL resolution belong to the file service; the delivery core
// never inspects the content.
type Attachment struct {
	URL      string
	Kind     AttachmentKind
	FileName string
	MimeType string
	Size     int64
}

// Message is the core entity governed by the delivery state machine.
type Message struct {
	ID       uuid.UUID
	ClientID string // client-assigned correlation id for optimistic UI reconciliation

	SenderID   uuid.UUID
	ReceiverID uuid.UUID

	Text       string
	Attachment *Attachment

	State DeliveryState

	CreatedAt   time.Time
	DeliveredAt *time.Time
	ReadAt      *time.Time

	// ExpiresAt is computed at creation time from the sender's disappearing
	// timer for the conversation. Read paths treat an expired message as
	// absent (lazy expiry).
	ExpiresAt *time.Time
}

// Expired reports whether the message has passed its disappearing deadline.
func (m *Message) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// Advance moves the message to target if that is a forward transition,
// stamping delivered_at/read_at exactly once. Returns false when the
// transition is a no-op.
func (m *Message) Advance(target DeliveryState, at time.Time) bool {
	if !m.State.CanAdvance(target) {
		return false
	}
	m.State = target
	switch target {
	case StateDelivered:
		if m.DeliveredAt == nil {
			m.DeliveredAt = &at
		}
	case StateRead:
		if m.ReadAt == nil {
			m.ReadAt = &at
		}
	}
	return true
}
