package amqp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/adapter/pubsub"
	"github.com/webitel/im-messaging-service/internal/domain/registry"
	"github.com/webitel/im-messaging-service/internal/service"
)

const (
	// ------------------- TOPICS (ROUTING KEYS) -----------------
	TopicMessageCreated   = "im_messaging.v1.*.message.created"
	TopicMessageDelivered = "im_messaging.v1.*.message.delivered"
	TopicMessagesRead     = "im_messaging.v1.*.messages.read"

	// ------------------- QUEUES (CONSUMERS) --------------------
	MessagingProcessorQueue = "im-messaging.incoming-processor.v1"
	MessagingPoisonTopic    = "im-messaging.incoming-processor.v1.poison"
)

// MessageHandler consumes delivery events published by sibling nodes and
// replays them onto local connections.
type MessageHandler struct {
	hub        registry.Hubber
	logger     *slog.Logger
	fanout     service.Fanouter
	dispatcher pubsub.EventDispatcher
}

func NewMessageHandler(hub registry.Hubber, logger *slog.Logger, fanout service.Fanouter, dispatcher pubsub.EventDispatcher) *MessageHandler {
	return &MessageHandler{hub, logger, fanout, dispatcher}
}

func NewWatermillRouter(logger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, logger)
}

// [REGISTRATION_PIPELINE]
func (h *MessageHandler) RegisterHandlers(router *message.Router, subProvider *pubsub.SubscriberProvider) error {
	poison, err := middleware.PoisonQueue(h.dispatcher.Publisher(), MessagingPoisonTopic)
	if err != nil {
		return fmt.Errorf("POISON_SETUP_FAILED: %w", err)
	}

	configs := []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		{"ON_MSG_CREATED", TopicMessageCreated, Bind(h, h.OnMessageCreated)},
		{"ON_MSG_DELIVERED", TopicMessageDelivered, Bind(h, h.OnMessageDelivered)},
		{"ON_MSGS_READ", TopicMessagesRead, Bind(h, h.OnMessagesRead)},
	}

	for _, c := range configs {
		instanceID := uuid.NewString()[:8]
		// [UNIQUE_HANDLER_QUEUE]
		// Every handler on THIS node gets its own queue so each node sees
		// every event and applies its own locality filter.
		// Format: im-messaging.incoming-processor.v1.b23a8f12.ON_MSG_CREATED
		handlerQueue := fmt.Sprintf("%s.%s.%s", MessagingProcessorQueue, instanceID, c.name)

		sub, err := subProvider.Build(handlerQueue)
		if err != nil {
			return err
		}

		router.AddConsumerHandler(c.name, c.topic, sub, c.handler).AddMiddleware(
			TraceIDMiddleware,
			LoggingMiddleware(h.logger),
			NewRetryMiddleware().Middleware,
			poison,
			middleware.NewThrottle(100, time.Second).Middleware,
			middleware.Timeout(time.Second*30),
		)
	}

	h.logger.Info("AMQP_PIPELINE_READY", "queue", MessagingProcessorQueue)
	return nil
}
