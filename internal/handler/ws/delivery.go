package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/webitel/im-messaging-service/config"
	"github.com/webitel/im-messaging-service/internal/domain/event"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	wsmarshaller "github.com/webitel/im-messaging-service/internal/handler/marshaller/ws"
	"github.com/webitel/im-messaging-service/internal/service"
)

const (
	authDeadline = 15 * time.Second
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
)

type WSHandler struct {
	logger     *slog.Logger
	deliverer  service.Deliverer
	auther     service.Auther
	messenger  service.Messenger
	reconciler service.Reconciler
	fanout     service.Fanouter
	cfg        *config.Config
	upgrader   websocket.Upgrader
}

func NewWSHandler(
	logger *slog.Logger,
	deliverer service.Deliverer,
	auther service.Auther,
	messenger service.Messenger,
	reconciler service.Reconciler,
	fanout service.Fanouter,
	cfg *config.Config,
) *WSHandler {
	return &WSHandler{
		logger:     logger,
		deliverer:  deliverer,
		auther:     auther,
		messenger:  messenger,
		reconciler: reconciler,
		fanout:     fanout,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	// 1. [HANDSHAKE] The first frames must authenticate within the deadline.
	userID, ok := h.awaitAuthentication(r.Context(), ws)
	if !ok {
		return
	}

	// 2. [ACTOR_ATTACHMENT] register presence, auto-join the self room.
	conn, err := h.deliverer.Subscribe(r.Context(), userID)
	if err != nil {
		h.logger.Error("ws subscription rejected", "err", err, "user_id", userID)
		return
	}
	defer h.deliverer.Unsubscribe(userID, conn.GetID())

	l := h.logger.With(
		slog.String("user_id", userID.String()),
		slog.String("conn_id", conn.GetID().String()),
	)
	l.Info("ws session established")

	// 3. [ACK] confirm identity to the client before any event flows.
	welcome := event.NewSystemEvent(userID, event.Connected, event.PriorityNormal, &model.ConnectedPayload{
		Ok:            true,
		UserID:        userID.String(),
		ConnectionID:  conn.GetID().String(),
		ServerVersion: model.ServerVersion,
	})
	if err := h.writeEvent(ws, welcome); err != nil {
		l.Error("ws handshake delivery failed", "err", err)
		return
	}

	// 4. [RECONCILE_SCHEDULE] fire-and-forget after a fixed delay so the
	// client finishes subscribing before receipts start flooding in.
	// Keyed by user id on a background context: a disconnect during the
	// delay must not cancel the catch-up.
	time.AfterFunc(h.cfg.Messaging.ReconcileDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.reconciler.Reconcile(ctx, userID)
	})

	// 5. [PUMPS] outbound writer in its own goroutine; this goroutine
	// becomes the inbound reader. Reader exit tears down the session.
	sess := newSession(h, l, ws, conn, userID)
	defer sess.stopTypingTimers()

	go sess.writePump(r.Context())
	sess.readPump(r.Context())
}

// awaitAuthentication loops over inbound frames until a valid authenticate
// event arrives or the deadline passes. A bad token produces an
// authentication_error frame; the connection survives for a retry.
func (h *WSHandler) awaitAuthentication(ctx context.Context, ws *websocket.Conn) (uuid.UUID, bool) {
	_ = ws.SetReadDeadline(time.Now().Add(authDeadline))

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return uuid.Nil, false
		}

		var in inboundEvent
		if err := json.Unmarshal(raw, &in); err != nil {
			h.rejectAuth(ws, "malformed frame")
			continue
		}
		if in.Event != eventAuthenticate {
			h.logger.Warn("ws frame before authentication dropped", "event", in.Event)
			continue
		}

		var payload authenticatePayload
		if err := decodePayload(in.Payload, &payload); err != nil || payload.Token == "" {
			h.rejectAuth(ws, "malformed credential payload")
			continue
		}

		userID, err := h.auther.Authenticate(ctx, payload.Token)
		if err != nil {
			h.rejectAuth(ws, "invalid credential token")
			continue
		}

		_ = ws.SetReadDeadline(time.Time{})
		return userID, true
	}
}

func (h *WSHandler) rejectAuth(ws *websocket.Conn, reason string) {
	ev := event.NewSystemEvent(uuid.Nil, event.AuthError, event.PriorityHigh, &model.AuthErrorPayload{
		Reason: reason,
	})
	if err := h.writeEvent(ws, ev); err != nil {
		h.logger.Warn("ws auth rejection send failed", "err", err)
	}
}

func (h *WSHandler) writeEvent(ws *websocket.Conn, ev event.Eventer) error {
	data, err := wsmarshaller.MarshallDeliveryEvent(ev)
	if err != nil {
		return err
	}
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(websocket.TextMessage, data)
}
