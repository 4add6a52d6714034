package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Client-to-server wire events.
const (
	eventAuthenticate = "authenticate"
	eventJoinRoom     = "join_room"
	eventTyping       = "typing"
	eventSendMessage  = "send_message"
	eventMarkAsRead   = "mark_as_read"
	eventChatOpened   = "chat_opened"
)

// inboundEvent is the envelope of every client frame. Payload decoding is
// deferred until the event name selects a shape.
type inboundEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type joinRoomPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

type typingInbound struct {
	ReceiverID uuid.UUID `json:"receiver_id"`
	IsTyping   bool      `json:"is_typing"`
}

type sendMessagePayload struct {
	MessageID uuid.UUID `json:"message_id"`
}

type markAsReadPayload struct {
	SenderID uuid.UUID `json:"sender_id"`
}

type chatOpenedPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errors.New("empty payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrap(err, "decode payload")
	}
	return nil
}
