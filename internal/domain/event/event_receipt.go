package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/model"
)

var (
	_ Eventer    = (*ReceiptEvent)(nil)
	_ Exportable = (*ReceiptEvent)(nil)
)

// ReceiptEvent notifies the ORIGINAL SENDER about a delivery-state advance
// of one of their messages (delivered or read). Receipts are never routed
// to the recipient: their own delivery state is useless to them.
type ReceiptEvent struct {
	ID         uuid.UUID `json:"id"`
	Kind       EventKind `json:"kind"`
	UserID     uuid.UUID `json:"user_id"` // the sender being notified
	Payload    any       `json:"payload"`
	OccurredAt int64     `json:"occurred_at"`
	Cached     any       `json:"-"`
}

// NewDeliveredReceipt builds the per-message "message_delivered" receipt.
func NewDeliveredReceipt(senderID, receiverID, messageID uuid.UUID) *ReceiptEvent {
	return &ReceiptEvent{
		ID:     uuid.New(),
		Kind:   MessageDelivered,
		UserID: senderID,
		Payload: &model.DeliveredPayload{
			MessageID:  messageID,
			ReceiverID: receiverID,
		},
		OccurredAt: time.Now().UnixMilli(),
	}
}

// NewReadReceipt builds the bulk "messages_read" receipt. One event covers
// every message the reader just marked.
func NewReadReceipt(senderID, readerID uuid.UUID) *ReceiptEvent {
	return &ReceiptEvent{
		ID:     uuid.New(),
		Kind:   MessagesRead,
		UserID: senderID,
		Payload: &model.ReadPayload{
			SenderID: senderID,
			ReaderID: readerID,
		},
		OccurredAt: time.Now().UnixMilli(),
	}
}

func (e *ReceiptEvent) GetID() string              { return e.ID.String() }
func (e *ReceiptEvent) GetKind() EventKind         { return e.Kind }
func (e *ReceiptEvent) GetUserID() uuid.UUID       { return e.UserID }
func (e *ReceiptEvent) GetPriority() EventPriority { return PriorityNormal }
func (e *ReceiptEvent) GetOccurredAt() int64       { return e.OccurredAt }
func (e *ReceiptEvent) GetPayload() any            { return e.Payload }
func (e *ReceiptEvent) GetCached() any             { return e.Cached }
func (e *ReceiptEvent) SetCached(v any)            { e.Cached = v }

// GetRoutingKey targets the sender's node(s) on the bus.
func (e *ReceiptEvent) GetRoutingKey() string {
	switch e.Kind {
	case MessageDelivered:
		return fmt.Sprintf("im_messaging.v1.%s.message.delivered", e.UserID)
	case MessagesRead:
		return fmt.Sprintf("im_messaging.v1.%s.messages.read", e.UserID)
	default:
		return ""
	}
}
