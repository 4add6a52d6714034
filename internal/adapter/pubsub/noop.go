package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/webitel/im-messaging-service/internal/domain/event"
)

// Interface guard
var _ EventDispatcher = (*NoopDispatcher)(nil)

// NoopDispatcher keeps single-node deployments (broker.enabled=false)
// working: events stay node-local and nothing is exported.
type NoopDispatcher struct{}

func NewNoopDispatcher() *NoopDispatcher { return &NoopDispatcher{} }

func (NoopDispatcher) Publish(context.Context, event.Eventer) error { return nil }
func (NoopDispatcher) Publisher() message.Publisher                 { return nil }
