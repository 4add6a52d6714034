package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/webitel/im-messaging-service/config"
	"github.com/webitel/im-messaging-service/internal/adapter/pubsub"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logger.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logger.JSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		slog.String("service", ServiceName),
		slog.String("namespace", ServiceNamespace),
	)
	slog.SetDefault(logger)
	return logger
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

// ProvideMongo connects eagerly: a delivery node that cannot reach its
// storage should fail at startup, not on the first send.
func ProvideMongo(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*mongo.Database, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.Storage.MongoURI))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				return err
			}
			logger.Info("STORAGE_CONNECTED", "database", cfg.Storage.Database)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return client.Database(cfg.Storage.Database), nil
}

// ProvideDispatcher builds the AMQP publisher when the broker is enabled,
// otherwise a noop so services never branch on deployment topology.
func ProvideDispatcher(cfg *config.Config, logger watermill.LoggerAdapter) (pubsub.EventDispatcher, error) {
	if !cfg.Broker.Enabled {
		return pubsub.NewNoopDispatcher(), nil
	}

	pub, err := pubsub.NewPublisherProvider(cfg, logger).Build()
	if err != nil {
		return nil, err
	}
	return pubsub.NewEventDispatcher(pub), nil
}
