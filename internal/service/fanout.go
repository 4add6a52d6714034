package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/adapter/pubsub"
	"github.com/webitel/im-messaging-service/internal/domain/event"
	"github.com/webitel/im-messaging-service/internal/domain/registry"
)

// Fanouter pushes an event to a user across every plausible delivery path.
type Fanouter interface {
	Push(ctx context.Context, ev event.Eventer)

	// PushLocal delivers on this node only, without the broker export.
	// The bus consumer uses it: re-exporting a consumed event would loop.
	PushLocal(ev event.Eventer) bool
}

// Interface guard
var _ Fanouter = (*FanoutDispatcher)(nil)

// FanoutDispatcher implements the dual-path delivery strategy:
//
//	[BEST_EFFORT_DIRECT]      resolve the live connector and send
//	[GUARANTEED_IF_SUBSCRIBED] unconditionally broadcast to the room named
//	                           after the target user id
//
// Direct-handle delivery can race with the handle going stale between
// resolution and send; room delivery survives that race but is a no-op if
// the client never joined. Both paths firing for one event is expected:
// clients deduplicate by event id.
//
// Exportable events are additionally published to the broker so sibling
// nodes can serve users connected elsewhere.
type FanoutDispatcher struct {
	hub        registry.Hubber
	dispatcher pubsub.EventDispatcher
	logger     *slog.Logger

	sendTimeout time.Duration
}

func NewFanoutDispatcher(hub registry.Hubber, dispatcher pubsub.EventDispatcher, logger *slog.Logger) *FanoutDispatcher {
	return &FanoutDispatcher{
		hub:         hub,
		dispatcher:  dispatcher,
		logger:      logger,
		sendTimeout: 500 * time.Millisecond,
	}
}

// Push never fails: a missing target is not an error, only an absent room
// leaves the event undelivered until the recipient's next reconciliation.
func (d *FanoutDispatcher) Push(ctx context.Context, ev event.Eventer) {
	d.PushLocal(ev)

	// [GLOBAL_DISPATCH] Export to the bus for multi-node delivery.
	if err := d.dispatcher.Publish(ctx, ev); err != nil {
		d.logger.Error("FANOUT_EXPORT_FAILED", "err", err, "event_id", ev.GetID())
	}
}

// PushLocal runs the dual-path delivery on this node and reports whether
// either path reached a live connection.
func (d *FanoutDispatcher) PushLocal(ev event.Eventer) bool {
	target := ev.GetUserID()
	if target == uuid.Nil {
		d.logger.Warn("FANOUT_SKIPPED: missing routing target", "event_id", ev.GetID())
		return false
	}

	direct := false
	if conn, ok := d.hub.Resolve(target); ok {
		direct = conn.Send(ev, d.sendTimeout)
	}

	// [DUAL_PATH] The room broadcast fires even after a successful direct
	// send; duplicates are cheaper than a receipt lost to a stale handle.
	room := d.hub.BroadcastRoom(target.String(), ev)

	if !direct && room == 0 {
		d.logger.Debug("FANOUT_LOCAL_MISS",
			"event_id", ev.GetID(),
			"kind", ev.GetKind().String(),
			"user_id", target,
		)
		return false
	}
	return true
}
