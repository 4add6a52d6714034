package wsmarshaller

import (
	"time"

	"github.com/webitel/im-messaging-service/internal/domain/model"
)

type WSMessage struct {
	ID          string        `json:"id"`
	ClientID    string        `json:"client_id,omitempty"`
	SenderID    string        `json:"sender_id"`
	ReceiverID  string        `json:"receiver_id"`
	Text        string        `json:"text,omitempty"`
	State       string        `json:"state"`
	CreatedAt   int64         `json:"created_at"`
	DeliveredAt int64         `json:"delivered_at,omitempty"`
	ReadAt      int64         `json:"read_at,omitempty"`
	ExpiresAt   int64         `json:"expires_at,omitempty"`
	Attachment  *WSAttachment `json:"attachment,omitempty"`
}

type WSAttachment struct {
	URL      string `json:"url"`
	Kind     string `json:"kind"` // "image", "video", "audio", "document", "file"
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

var attachmentKinds = map[model.AttachmentKind]string{
	model.AttachmentImage:    "image",
	model.AttachmentVideo:    "video",
	model.AttachmentAudio:    "audio",
	model.AttachmentDocument: "document",
	model.AttachmentFile:     "file",
}

// mapPayload converts the domain payload into a JSON-friendly shape.
// Receipt and presence payloads are already plain structs with tags;
// only messages need remapping.
func mapPayload(p any) any {
	msg, ok := p.(*model.Message)
	if !ok {
		return p
	}
	return MapMessage(msg)
}

// MapMessage is shared with the REST surface so both transports present
// the same message shape.
func MapMessage(m *model.Message) *WSMessage {
	msg := &WSMessage{
		ID:          m.ID.String(),
		ClientID:    m.ClientID,
		SenderID:    m.SenderID.String(),
		ReceiverID:  m.ReceiverID.String(),
		Text:        m.Text,
		State:       string(m.State),
		CreatedAt:   m.CreatedAt.UnixMilli(),
		DeliveredAt: unixMilliOrZero(m.DeliveredAt),
		ReadAt:      unixMilliOrZero(m.ReadAt),
		ExpiresAt:   unixMilliOrZero(m.ExpiresAt),
	}

	if m.Attachment != nil {
		msg.Attachment = &WSAttachment{
			URL:      m.Attachment.URL,
			Kind:     attachmentKinds[m.Attachment.Kind],
			FileName: m.Attachment.FileName,
			MimeType: m.Attachment.MimeType,
			Size:     m.Attachment.Size,
		}
	}

	return msg
}

func unixMilliOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
