package model

import "github.com/google/uuid"

const ServerVersion = "25.08"

// ConnectedPayload is sent to the client upon successful authentication.
type ConnectedPayload struct {
	Ok            bool   `json:"ok"`
	UserID        string `json:"user_id"`
	ConnectionID  string `json:"connection_id"`
	ServerVersion string `json:"server_version"`
}

// AuthErrorPayload rejects an authenticate attempt. The connection stays
// open so the client may retry with a fresh token.
type AuthErrorPayload struct {
	Reason string `json:"reason"`
}

// PresencePayload announces a user going online or offline.
type PresencePayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// TypingPayload relays an ephemeral typing indicator. Never persisted.
type TypingPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	IsTyping bool      `json:"is_typing"`
}

// DeliveredPayload is the receipt pushed to the original sender when one
// of their messages reaches the delivered state.
type DeliveredPayload struct {
	MessageID  uuid.UUID `json:"message_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
}

// ReadPayload is the receipt pushed to the original sender when the reader
// bulk-marks their messages as read.
type ReadPayload struct {
	SenderID uuid.UUID `json:"sender_id"`
	ReaderID uuid.UUID `json:"reader_id"`
}
