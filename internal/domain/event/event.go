package event

import "github.com/google/uuid"

type EventKind int16

//go:generate stringer -type=EventKind
const (
	Connected        EventKind = iota + 1 // [SYSTEM]
	Disconnected                          // [SYSTEM]
	UserOnline                            // [PRESENCE]
	UserOffline                           // [PRESENCE]
	UserTyping                            // [EPHEMERAL]
	MessageReceived                       // [BUSINESS]
	MessageDelivered                      // [RECEIPT]
	MessagesRead                          // [RECEIPT]
	AuthError                             // [SYSTEM]
)

type EventPriority int32

const (
	PriorityLow    EventPriority = 10
	PriorityNormal EventPriority = 20
	PriorityHigh   EventPriority = 30
)

// Eventer defines the contract for all data packets flowing through the Hub.
// UserID is the routing target: the one user whose connection (and room)
// should receive this event instance.
type Eventer interface {
	GetID() string
	GetKind() EventKind
	GetUserID() uuid.UUID
	GetPriority() EventPriority
	GetOccurredAt() int64
	GetPayload() any
	GetCached() any
	SetCached(any)
}

// Exportable marks an event that should be re-published to the message bus
// so sibling nodes can deliver it to users connected elsewhere.
// An empty routing key tells the dispatcher to skip publishing.
type Exportable interface {
	GetRoutingKey() string
}
