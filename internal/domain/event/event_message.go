package event

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/model"
)

var (
	_ Eventer    = (*MessageEvent)(nil)
	_ Exportable = (*MessageEvent)(nil)
)

// MessageEvent carries a chat message to its recipient.
//
// [STRATEGY]
// It distinguishes between:
//   - [BUSINESS_PEERS] (Message.SenderID/ReceiverID): logical participants.
//   - [ROUTING_TARGET] (UserID): the physical recipient of this event instance.
//
// Keeping the two separate allows stateless horizontal scaling: every node
// checks hub.IsOnline(UserID) to decide whether it owns the delivery.
type MessageEvent struct {
	ID      uuid.UUID      `json:"id"`
	Message *model.Message `json:"message"`
	UserID  uuid.UUID      `json:"user_id"`
	Cached  any            `json:"-"` // [INTERNAL] not for serialization
}

// NewMessageEvent wraps a persisted message for delivery to userID.
func NewMessageEvent(msg *model.Message, userID uuid.UUID) *MessageEvent {
	return &MessageEvent{
		ID:      uuid.New(),
		Message: msg,
		UserID:  userID,
	}
}

func (e *MessageEvent) GetID() string              { return e.ID.String() }
func (e *MessageEvent) GetKind() EventKind         { return MessageReceived }
func (e *MessageEvent) GetUserID() uuid.UUID       { return e.UserID }
func (e *MessageEvent) GetPriority() EventPriority { return PriorityHigh }
func (e *MessageEvent) GetOccurredAt() int64       { return e.Message.CreatedAt.UnixMilli() }
func (e *MessageEvent) GetPayload() any            { return e.Message }
func (e *MessageEvent) GetCached() any             { return e.Cached }
func (e *MessageEvent) SetCached(v any)            { e.Cached = v }

// GetRoutingKey generates the broker topic for cross-node delivery.
// [PATTERN] im_messaging.v1.{recipient}.message.created
func (e *MessageEvent) GetRoutingKey() string {
	return fmt.Sprintf("im_messaging.v1.%s.message.created", e.UserID)
}
