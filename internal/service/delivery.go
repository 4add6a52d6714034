package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/event"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	"github.com/webitel/im-messaging-service/internal/domain/registry"
)

// [DELIVERY_SERVICE] PRIMARY INTERFACE FOR TRANSPORT HANDLERS (WebSocket)
type Deliverer interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (registry.Connector, error)
	Unsubscribe(userID, connID uuid.UUID)
	JoinRoom(room string, conn registry.Connector)
}

// Interface guard
var _ Deliverer = (*DeliveryService)(nil)

type DeliveryService struct {
	hub *registry.Hub
}

// NewDeliveryService returns a production-ready instance of the service.
func NewDeliveryService(hub *registry.Hub) *DeliveryService {
	return &DeliveryService{hub: hub}
}

// Subscribe registers the connection as the user's single live session.
// Side effects: the connection auto-joins the room named after its own
// user id, and everyone else learns the user came online.
func (s *DeliveryService) Subscribe(ctx context.Context, userID uuid.UUID) (registry.Connector, error) {
	conn := registry.NewConnector(ctx, userID, s.hub.MailboxSize())

	s.hub.Register(conn)
	s.hub.JoinRoom(userID.String(), conn)

	s.hub.BroadcastAll(
		event.NewSystemEvent(userID, event.UserOnline, event.PriorityLow, &model.PresencePayload{UserID: userID}),
		userID,
	)

	return conn, nil
}

// Unsubscribe tears the session down. The stale-disconnect guard lives in
// the hub: an old connection detaching after a fast reconnect must not
// evict the newer one, and must not announce a phantom offline.
func (s *DeliveryService) Unsubscribe(userID, connID uuid.UUID) {
	if !s.hub.Unregister(userID, connID) {
		return
	}

	s.hub.BroadcastAll(
		event.NewSystemEvent(userID, event.UserOffline, event.PriorityLow, &model.PresencePayload{UserID: userID}),
		userID,
	)
}

// JoinRoom re-subscribes the connection to a named room. Exposed for the
// explicit join_room client event, a redundant safety net on top of the
// automatic self-room join.
func (s *DeliveryService) JoinRoom(room string, conn registry.Connector) {
	s.hub.JoinRoom(room, conn)
}
