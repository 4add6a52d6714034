package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/webitel/im-messaging-service/internal/domain/event"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	"github.com/webitel/im-messaging-service/internal/domain/registry"
	"github.com/webitel/im-messaging-service/internal/repository"
)

// SendInput is the payload accepted by the synchronous create-message
// surface. The attachment is opaque: upload happened elsewhere.
type SendInput struct {
	ClientID   string
	Text       string
	Attachment *model.Attachment
}

// Messenger is the delivery core's primary API: the send pipeline and the
// bulk read transition.
type Messenger interface {
	// Send runs the full pipeline: policy gate, lazy conversation, expiry,
	// persistence with presence-aware initial state, fanout.
	Send(ctx context.Context, senderID, receiverID uuid.UUID, in SendInput) (*model.Message, error)

	// PushPersisted requests a delivery push for a message that was already
	// persisted through the synchronous surface. Idempotent: pushing a
	// message that is already delivered only re-emits events the client
	// deduplicates by id.
	PushPersisted(ctx context.Context, senderID, messageID uuid.UUID) error

	// MarkRead bulk-advances every unread message from senderID to readerID
	// and emits a single read receipt to the sender. State change strictly
	// precedes notification.
	MarkRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error)
}

// Interface guard
var _ Messenger = (*MessengerService)(nil)

type MessengerService struct {
	messages repository.MessageRepository
	policy   Policier
	hub      registry.Hubber
	fanout   Fanouter
	logger   *slog.Logger
}

func NewMessengerService(
	messages repository.MessageRepository,
	policy Policier,
	hub registry.Hubber,
	fanout Fanouter,
	logger *slog.Logger,
) *MessengerService {
	return &MessengerService{
		messages: messages,
		policy:   policy,
		hub:      hub,
		fanout:   fanout,
		logger:   logger,
	}
}

func (s *MessengerService) Send(ctx context.Context, senderID, receiverID uuid.UUID, in SendInput) (*model.Message, error) {
	// 1. [POLICY_GATE] Both block directions; rejection is total, no
	// partial state ever leaks out of a refused send.
	if err := s.policy.CheckSendAllowed(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	// 2. [EXPIRY] Computed once, at creation, from the sender's timer.
	expiresAt, err := s.policy.ComputeExpiry(ctx, senderID, receiverID)
	if err != nil {
		return nil, errors.Wrap(err, "messenger: expiry computation failed")
	}

	now := time.Now()
	msg := &model.Message{
		ID:         uuid.New(),
		ClientID:   in.ClientID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       in.Text,
		Attachment: in.Attachment,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}

	// 3. [INITIAL_STATE] Front-load the delivered check at persistence
	// time so history reads stay accurate even without a live socket push.
	if s.hub.IsOnline(receiverID) {
		msg.State = model.StateSent
		msg.Advance(model.StateDelivered, now)
	} else {
		msg.State = model.StateSent
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "messenger: persist failed")
	}

	// 4. [FANOUT] Recipient gets the message; the sender gets a delivered
	// receipt only when the state actually advanced.
	s.fanout.Push(ctx, event.NewMessageEvent(msg, receiverID))
	if msg.State == model.StateDelivered {
		s.fanout.Push(ctx, event.NewDeliveredReceipt(senderID, receiverID, msg.ID))
	}

	return msg, nil
}

func (s *MessengerService) PushPersisted(ctx context.Context, senderID, messageID uuid.UUID) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return errors.Wrap(err, "messenger: push lookup failed")
	}
	if msg.SenderID != senderID {
		return ErrNotParticipant
	}

	if s.hub.IsOnline(msg.ReceiverID) && msg.State == model.StateSent {
		now := time.Now()
		if _, err := s.messages.MarkDelivered(ctx, []uuid.UUID{msg.ID}, now); err != nil {
			return errors.Wrap(err, "messenger: delivery advance failed")
		}
		msg.Advance(model.StateDelivered, now)
	}

	s.fanout.Push(ctx, event.NewMessageEvent(msg, msg.ReceiverID))

	// [MONOTONIC_RECEIPT] the re-emitted receipt must match the stored
	// state exactly: a read message is never reported as merely delivered.
	switch msg.State {
	case model.StateDelivered:
		s.fanout.Push(ctx, event.NewDeliveredReceipt(msg.SenderID, msg.ReceiverID, msg.ID))
	case model.StateRead:
		s.fanout.Push(ctx, event.NewReadReceipt(msg.SenderID, msg.ReceiverID))
	}
	return nil
}

func (s *MessengerService) MarkRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	// [ORDERING] the bulk update lands before the receipt is dispatched so
	// an immediate re-query by the sender observes the new state.
	n, err := s.messages.MarkRead(ctx, readerID, senderID, time.Now())
	if err != nil {
		return 0, errors.Wrap(err, "messenger: bulk read failed")
	}
	if n == 0 {
		return 0, nil
	}

	s.fanout.Push(ctx, event.NewReadReceipt(senderID, readerID))
	return n, nil
}
