package amqp

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	pubsubadapter "github.com/webitel/im-messaging-service/internal/adapter/pubsub"
	"go.uber.org/fx"
)

var Module = fx.Module("amqp-handler",
	fx.Provide(
		pubsubadapter.NewSubscriberProvider,

		NewMessageHandler,
		NewWatermillRouter,
	),

	fx.Invoke(registerHandlers),
	fx.Invoke(runRouter),
)

func registerHandlers(h *MessageHandler, router *message.Router, subProvider *pubsubadapter.SubscriberProvider) error {
	return h.RegisterHandlers(router, subProvider)
}

func runRouter(lc fx.Lifecycle, router *message.Router, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Error("AMQP_ROUTER_STOPPED", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			return router.Close()
		},
	})
}
