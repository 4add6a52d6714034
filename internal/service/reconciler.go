package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/event"
	"github.com/webitel/im-messaging-service/internal/repository"
)

// Reconciler catches a freshly connected user up: every message addressed
// to them that never reached delivered is bulk-advanced, and each original
// sender is notified.
type Reconciler interface {
	// Reconcile runs once per successful connection authentication. It is
	// keyed by user id, not by connection: a disconnect during the startup
	// delay does not cancel it, and pushes re-resolve presence.
	Reconcile(ctx context.Context, userID uuid.UUID)
}

// Interface guard
var _ Reconciler = (*ReconcilerService)(nil)

type ReconcilerService struct {
	messages repository.MessageRepository
	fanout   Fanouter
	logger   *slog.Logger
}

func NewReconcilerService(messages repository.MessageRepository, fanout Fanouter, logger *slog.Logger) *ReconcilerService {
	return &ReconcilerService{
		messages: messages,
		fanout:   fanout,
		logger:   logger,
	}
}

// Reconcile is idempotent by construction: the pending query excludes
// anything already delivered, so a second run right after the first
// advances zero messages. Failures are logged and dropped; the next
// reconnect retries for free.
func (s *ReconcilerService) Reconcile(ctx context.Context, userID uuid.UUID) {
	pending, err := s.messages.FindPending(ctx, userID)
	if err != nil {
		s.logger.Error("RECONCILE_SCAN_FAILED", "err", err, "user_id", userID)
		return
	}
	if len(pending) == 0 {
		return
	}

	// [BULK_ADVANCE] one storage round trip, not N.
	ids := make([]uuid.UUID, 0, len(pending))
	for _, msg := range pending {
		ids = append(ids, msg.ID)
	}
	now := time.Now()
	advanced, err := s.messages.MarkDelivered(ctx, ids, now)
	if err != nil {
		s.logger.Error("RECONCILE_ADVANCE_FAILED", "err", err, "user_id", userID)
		return
	}

	// [SENDER_NOTIFY] group by original sender, one receipt per message id.
	bySender := make(map[uuid.UUID][]uuid.UUID)
	for _, msg := range pending {
		bySender[msg.SenderID] = append(bySender[msg.SenderID], msg.ID)
	}
	for senderID, messageIDs := range bySender {
		for _, messageID := range messageIDs {
			s.fanout.Push(ctx, event.NewDeliveredReceipt(senderID, userID, messageID))
		}
	}

	s.logger.Info("RECONCILE_COMPLETED",
		"user_id", userID,
		"advanced", advanced,
		"senders", len(bySender),
	)
}
