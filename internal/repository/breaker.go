package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/webitel/im-messaging-service/internal/domain/model"
)

// Interface guard
var _ MessageRepository = (*BreakerMessageRepository)(nil)

// BreakerMessageRepository is a [DECORATOR] that shields the delivery core
// from a struggling document store. When the breaker opens, state-advancing
// calls fail fast; the next natural trigger (reconnect, next send) retries
// once the store recovers, which the idempotent filters make safe.
type BreakerMessageRepository struct {
	next MessageRepository
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerMessageRepository(next MessageRepository, logger *slog.Logger) *BreakerMessageRepository {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "message-repository",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A business miss is not an infrastructure failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("BREAKER_STATE_CHANGED",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return &BreakerMessageRepository{next: next, cb: cb}
}

func (r *BreakerMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	_, err := r.cb.Execute(func() (any, error) {
		return nil, r.next.Create(ctx, msg)
	})
	return err
}

func (r *BreakerMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	res, err := r.cb.Execute(func() (any, error) {
		return r.next.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.Message), nil
}

func (r *BreakerMessageRepository) FindPending(ctx context.Context, receiverID uuid.UUID) ([]*model.Message, error) {
	res, err := r.cb.Execute(func() (any, error) {
		return r.next.FindPending(ctx, receiverID)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*model.Message), nil
}

func (r *BreakerMessageRepository) MarkDelivered(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	res, err := r.cb.Execute(func() (any, error) {
		return r.next.MarkDelivered(ctx, ids, at)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (r *BreakerMessageRepository) MarkRead(ctx context.Context, readerID, senderID uuid.UUID, at time.Time) (int64, error) {
	res, err := r.cb.Execute(func() (any, error) {
		return r.next.MarkRead(ctx, readerID, senderID, at)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}
