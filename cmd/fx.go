package cmd

import (
	"log/slog"

	"github.com/webitel/im-messaging-service/config"
	"github.com/webitel/im-messaging-service/internal/domain/registry"
	amqphandler "github.com/webitel/im-messaging-service/internal/handler/amqp"
	httphandler "github.com/webitel/im-messaging-service/internal/handler/http"
	wshandler "github.com/webitel/im-messaging-service/internal/handler/ws"
	"github.com/webitel/im-messaging-service/internal/repository"
	memoryrepo "github.com/webitel/im-messaging-service/internal/repository/memory"
	mongorepo "github.com/webitel/im-messaging-service/internal/repository/mongo"
	"github.com/webitel/im-messaging-service/internal/service"
	"go.uber.org/fx"
)

func NewApp(cfg *config.Config) *fx.App {
	opts := []fx.Option{
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvideDispatcher,
		),

		registry.Module,
		service.Module,
		wshandler.Module,
		httphandler.Module,

		// [RESILIENCE] every storage driver gets the circuit breaker.
		fx.Decorate(func(next repository.MessageRepository, logger *slog.Logger) repository.MessageRepository {
			return repository.NewBreakerMessageRepository(next, logger)
		}),
	}

	switch cfg.Storage.Driver {
	case "memory":
		opts = append(opts, memoryrepo.Module)
	default:
		opts = append(opts, fx.Provide(ProvideMongo), mongorepo.Module)
	}

	if cfg.Broker.Enabled {
		opts = append(opts, amqphandler.Module)
	}

	return fx.New(opts...)
}
