package pubsub

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/webitel/im-messaging-service/internal/domain/event"
)

// EventDispatcher defines the high-level contract for outgoing events.
// This allows the services to stay agnostic of the transport implementation.
type EventDispatcher interface {
	Publish(ctx context.Context, ev event.Eventer) error
	Publisher() message.Publisher
}

// eventDispatcher is the concrete implementation (private).
type eventDispatcher struct {
	publisher message.Publisher
}

// NewEventDispatcher returns the interface instead of the pointer to the struct.
func NewEventDispatcher(pub message.Publisher) EventDispatcher {
	return &eventDispatcher{
		publisher: pub,
	}
}

func (d *eventDispatcher) Publish(ctx context.Context, ev event.Eventer) error {
	if ev == nil {
		return errors.New("event dispatcher: cannot publish nil event")
	}

	exp, ok := ev.(event.Exportable)
	if !ok || exp.GetRoutingKey() == "" {
		// Node-local event; nothing to export.
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "event dispatcher: marshal failure")
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("routing_key", exp.GetRoutingKey())

	if err := d.publisher.Publish(exp.GetRoutingKey(), msg); err != nil {
		return errors.Wrapf(err, "event dispatcher: failed to publish to topic %s", exp.GetRoutingKey())
	}

	return nil
}

func (d *eventDispatcher) Publisher() message.Publisher {
	return d.publisher
}
