package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/webitel/im-messaging-service/config"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"http-handler",

	fx.Provide(
		NewAPIHandler,
		NewRouter,
		newServer,
	),

	fx.Invoke(runServer),
)

func newServer(cfg *config.Config, router *chi.Mux) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func runServer(lc fx.Lifecycle, srv *http.Server, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("SERVER_STARTING", "addr", srv.Addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("SERVER_FAILED", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("SERVER_STOPPING")
			return srv.Shutdown(ctx)
		},
	})
}
