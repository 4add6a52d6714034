package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	wsmarshaller "github.com/webitel/im-messaging-service/internal/handler/marshaller/ws"
	"github.com/webitel/im-messaging-service/internal/service"
)

type createMessageRequest struct {
	ReceiverID uuid.UUID          `json:"receiver_id"`
	ClientID   string             `json:"client_id,omitempty"`
	Text       string             `json:"text,omitempty"`
	Attachment *attachmentRequest `json:"attachment,omitempty"`
}

type attachmentRequest struct {
	URL      string `json:"url"`
	Kind     int16  `json:"kind"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// createMessage runs the full send pipeline and returns the persisted
// message, including the server-assigned id and initial state.
func (h *APIHandler) createMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	if req.ReceiverID == uuid.Nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "receiver_id is required"})
		return
	}
	if req.Text == "" && req.Attachment == nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "message needs text or an attachment"})
		return
	}

	in := service.SendInput{
		ClientID: req.ClientID,
		Text:     req.Text,
	}
	if req.Attachment != nil {
		kind := model.AttachmentKind(req.Attachment.Kind)
		if !kind.Valid() {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "unknown attachment kind"})
			return
		}
		in.Attachment = &model.Attachment{
			URL:      req.Attachment.URL,
			Kind:     kind,
			FileName: req.Attachment.FileName,
			MimeType: req.Attachment.MimeType,
			Size:     req.Attachment.Size,
		}
	}

	msg, err := h.messenger.Send(r.Context(), callerID(r), req.ReceiverID, in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, wsmarshaller.MapMessage(msg))
}

type markReadRequest struct {
	SenderID uuid.UUID `json:"sender_id"`
}

type markReadResponse struct {
	Updated int64 `json:"updated"`
}

func (h *APIHandler) markRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := decodeBody(r, &req); err != nil || req.SenderID == uuid.Nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "sender_id is required"})
		return
	}

	n, err := h.messenger.MarkRead(r.Context(), callerID(r), req.SenderID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, markReadResponse{Updated: n})
}
