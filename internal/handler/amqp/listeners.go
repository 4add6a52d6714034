package amqp

import (
	"context"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/event"
)

// [ON_MESSAGE_CREATED]
// A sibling node persisted a message whose recipient lives here: replay
// the event onto the local connection.
func (h *MessageHandler) OnMessageCreated(ctx context.Context, userID uuid.UUID, raw *event.MessageEvent) (event.Eventer, error) {
	if raw.Message == nil {
		h.logger.Warn("EMPTY_MESSAGE_EVENT", "user_id", userID)
		return nil, nil
	}

	// The bus payload keeps its original event id so the client can
	// deduplicate against a copy it already got over the room path.
	raw.UserID = userID
	return raw, nil
}

// [ON_MESSAGE_DELIVERED]
// Per-message delivered receipt targeting a sender connected to this node.
func (h *MessageHandler) OnMessageDelivered(ctx context.Context, userID uuid.UUID, raw *event.ReceiptEvent) (event.Eventer, error) {
	raw.Kind = event.MessageDelivered
	raw.UserID = userID
	return raw, nil
}

// [ON_MESSAGES_READ]
// Bulk read receipt targeting a sender connected to this node.
func (h *MessageHandler) OnMessagesRead(ctx context.Context, userID uuid.UUID, raw *event.ReceiptEvent) (event.Eventer, error) {
	raw.Kind = event.MessagesRead
	raw.UserID = userID
	return raw, nil
}
