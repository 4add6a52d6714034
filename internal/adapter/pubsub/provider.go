package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/webitel/im-messaging-service/config"
)

// PublisherProvider builds topic-exchange publishers. One durable exchange
// carries every delivery event; the watermill topic maps 1:1 onto the
// AMQP routing key.
type PublisherProvider struct {
	cfg    *config.Config
	logger watermill.LoggerAdapter
}

func NewPublisherProvider(cfg *config.Config, logger watermill.LoggerAdapter) *PublisherProvider {
	return &PublisherProvider{cfg: cfg, logger: logger}
}

func (pp *PublisherProvider) Build() (message.Publisher, error) {
	return amqp.NewPublisher(pp.amqpConfig(""), pp.logger)
}

// SubscriberProvider builds per-handler queues bound to the shared topic
// exchange with a binding key pattern.
type SubscriberProvider struct {
	cfg    *config.Config
	logger watermill.LoggerAdapter
}

func NewSubscriberProvider(cfg *config.Config, logger watermill.LoggerAdapter) *SubscriberProvider {
	return &SubscriberProvider{cfg: cfg, logger: logger}
}

func (sp *SubscriberProvider) Build(queue string) (message.Subscriber, error) {
	p := &PublisherProvider{cfg: sp.cfg, logger: sp.logger}
	return amqp.NewSubscriber(p.amqpConfig(queue), sp.logger)
}

func (pp *PublisherProvider) amqpConfig(queue string) amqp.Config {
	cfg := amqp.NewDurablePubSubConfig(pp.cfg.Broker.AMQPURL, func(topic string) string {
		if queue != "" {
			return queue
		}
		return topic
	})

	exchange := pp.cfg.Broker.Exchange
	cfg.Exchange.GenerateName = func(string) string { return exchange }
	cfg.Exchange.Type = "topic"
	cfg.Exchange.Durable = true

	// The watermill topic doubles as the AMQP routing/binding key.
	cfg.Publish.GenerateRoutingKey = func(topic string) string { return topic }
	cfg.QueueBind.GenerateRoutingKey = func(topic string) string { return topic }

	return cfg
}
