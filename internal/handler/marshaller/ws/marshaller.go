package wsmarshaller

import (
	"encoding/json"

	"github.com/webitel/im-messaging-service/internal/domain/event"
)

// WSEvent is a generic wrapper for WebSocket frames to provide consistent
// structure. Clients deduplicate by ID: the dual-path fanout may deliver
// the same event over both the direct handle and the room.
type WSEvent struct {
	Event   string `json:"event"`
	ID      string `json:"id"`
	SentAt  int64  `json:"sent_at"`
	Payload any    `json:"payload"`
}

// eventNames maps domain kinds onto the wire protocol names.
var eventNames = map[event.EventKind]string{
	event.Connected:        "authenticated",
	event.Disconnected:     "disconnected",
	event.AuthError:        "authentication_error",
	event.UserOnline:       "user_online",
	event.UserOffline:      "user_offline",
	event.UserTyping:       "user_typing",
	event.MessageReceived:  "receive_message",
	event.MessageDelivered: "message_delivered",
	event.MessagesRead:     "messages_read",
}

// MarshallDeliveryEvent prepares data for WebSocket transmission.
// The serialized frame is cached on the event so the room path and the
// direct path marshal once.
func MarshallDeliveryEvent(ev event.Eventer) ([]byte, error) {
	if cached := ev.GetCached(); cached != nil {
		if data, ok := cached.([]byte); ok {
			return data, nil
		}
	}

	res := &WSEvent{
		Event:   eventNames[ev.GetKind()],
		ID:      ev.GetID(),
		SentAt:  ev.GetOccurredAt(),
		Payload: mapPayload(ev.GetPayload()),
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	ev.SetCached(data)
	return data, nil
}
