package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/webitel/im-messaging-service/internal/handler/ws"
	"github.com/webitel/im-messaging-service/internal/service"
)

// APIHandler is the synchronous REST surface: message creation, bulk read,
// and the conversation policy endpoints. Real-time flows stay on the
// WebSocket; this is the authoritative write path.
type APIHandler struct {
	logger    *slog.Logger
	auther    service.Auther
	messenger service.Messenger
	policy    service.Policier
}

func NewAPIHandler(
	logger *slog.Logger,
	auther service.Auther,
	messenger service.Messenger,
	policy service.Policier,
) *APIHandler {
	return &APIHandler{
		logger:    logger,
		auther:    auther,
		messenger: messenger,
		policy:    policy,
	}
}

// NewRouter assembles the full HTTP surface. The WS endpoint skips the
// bearer middleware: it authenticates in-band with its first frame.
func NewRouter(api *APIHandler, wsHandler *ws.WSHandler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/ws", wsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware(api.auther))

		r.Post("/messages", api.createMessage)
		r.Post("/messages/read", api.markRead)

		r.Route("/conversations/{otherID}", func(r chi.Router) {
			r.Get("/settings", api.getSettings)
			r.Post("/mute", api.toggleMute)
			r.Post("/favourite", api.toggleFavourite)
			r.Put("/disappearing", api.setDisappearing)
		})

		r.Post("/users/{targetID}/block", api.toggleBlock)
	})

	return r
}
