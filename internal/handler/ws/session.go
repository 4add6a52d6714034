package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/webitel/im-messaging-service/internal/domain/event"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	"github.com/webitel/im-messaging-service/internal/domain/registry"
)

// session owns the two pumps of a live authenticated connection.
type session struct {
	handler *WSHandler
	logger  *slog.Logger
	ws      *websocket.Conn
	conn    registry.Connector
	userID  uuid.UUID

	typingMu     sync.Mutex
	typingTimers map[uuid.UUID]*time.Timer
}

func newSession(h *WSHandler, l *slog.Logger, ws *websocket.Conn, conn registry.Connector, userID uuid.UUID) *session {
	return &session{
		handler:      h,
		logger:       l,
		ws:           ws,
		conn:         conn,
		userID:       userID,
		typingTimers: make(map[uuid.UUID]*time.Timer),
	}
}

// writePump drains the connector mailbox onto the wire and keeps the
// connection alive with pings. It is the ONLY writer after the handshake;
// gorilla permits a single concurrent writer.
func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// Capture the mailbox once: the pooled connector is recycled after
	// Close, and a later session may blank-slate it with a fresh channel.
	// Re-reading Recv() per iteration could drain that session's events.
	recv := s.conn.Recv()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-recv:
			if !ok {
				// Mailbox closed: superseded by a newer session or hub shutdown.
				_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
				_ = s.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.handler.writeEvent(s.ws, ev); err != nil {
				s.logger.Warn("ws event delivery failed", "err", err, "kind", ev.GetKind())
				return
			}

		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound client events until the connection drops.
// A malformed frame is logged and dropped; the session survives.
func (s *session) readPump(ctx context.Context) {
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Read errors are connection-level and terminal; a frame that is
		// not valid JSON is merely logged and dropped.
		_, raw, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("ws read failed", "err", err)
			}
			return
		}

		var in inboundEvent
		if err := json.Unmarshal(raw, &in); err != nil {
			s.logger.Warn("ws malformed frame dropped", "err", err)
			continue
		}
		s.dispatch(ctx, &in)
	}
}

func (s *session) dispatch(ctx context.Context, in *inboundEvent) {
	switch in.Event {
	case eventJoinRoom:
		s.onJoinRoom(in)
	case eventTyping:
		s.onTyping(in)
	case eventSendMessage:
		s.onSendMessage(ctx, in)
	case eventMarkAsRead:
		s.onMarkAsRead(ctx, in)
	case eventChatOpened:
		s.onChatOpened(ctx, in)
	case eventAuthenticate:
		// Already authenticated; re-auth mid-session is not supported.
		s.logger.Warn("ws duplicate authenticate dropped")
	default:
		s.logger.Warn("ws unknown event dropped", "event", in.Event)
	}
}

// onJoinRoom honours the explicit room join. Rooms are keyed by the
// user's OWN id; a request for someone else's room is refused.
func (s *session) onJoinRoom(in *inboundEvent) {
	var payload joinRoomPayload
	if err := decodePayload(in.Payload, &payload); err != nil {
		s.logger.Warn("ws malformed join_room dropped", "err", err)
		return
	}
	if payload.UserID != s.userID {
		s.logger.Warn("ws foreign room join refused", "room", payload.UserID)
		return
	}
	s.handler.deliverer.JoinRoom(payload.UserID.String(), s.conn)
}

// onTyping relays the indicator to the peer at low priority. Under
// backpressure it is the first thing shed. A started indicator arms an
// auto-stop timer so a crashed client never leaves the peer's UI stuck
// on "typing...".
func (s *session) onTyping(in *inboundEvent) {
	var payload typingInbound
	if err := decodePayload(in.Payload, &payload); err != nil || payload.ReceiverID == uuid.Nil {
		s.logger.Warn("ws malformed typing dropped", "err", err)
		return
	}

	s.relayTyping(payload.ReceiverID, payload.IsTyping)

	s.typingMu.Lock()
	defer s.typingMu.Unlock()

	if t, ok := s.typingTimers[payload.ReceiverID]; ok {
		t.Stop()
		delete(s.typingTimers, payload.ReceiverID)
	}
	if payload.IsTyping {
		receiverID := payload.ReceiverID
		s.typingTimers[receiverID] = time.AfterFunc(s.handler.cfg.Messaging.TypingTimeout, func() {
			s.relayTyping(receiverID, false)
			s.typingMu.Lock()
			delete(s.typingTimers, receiverID)
			s.typingMu.Unlock()
		})
	}
}

func (s *session) relayTyping(receiverID uuid.UUID, isTyping bool) {
	ev := event.NewSystemEvent(receiverID, event.UserTyping, event.PriorityLow, &model.TypingPayload{
		UserID:   s.userID,
		IsTyping: isTyping,
	})
	s.handler.fanout.Push(context.Background(), ev)
}

// onSendMessage is the delivery push for a message already persisted over
// the REST surface: advance it if the receiver is online and re-run the
// fanout. Safe to repeat; clients deduplicate by event id.
func (s *session) onSendMessage(ctx context.Context, in *inboundEvent) {
	var payload sendMessagePayload
	if err := decodePayload(in.Payload, &payload); err != nil || payload.MessageID == uuid.Nil {
		s.logger.Warn("ws malformed send_message dropped", "err", err)
		return
	}
	if err := s.handler.messenger.PushPersisted(ctx, s.userID, payload.MessageID); err != nil {
		s.logger.Warn("ws delivery push failed", "err", err, "message_id", payload.MessageID)
	}
}

func (s *session) onMarkAsRead(ctx context.Context, in *inboundEvent) {
	var payload markAsReadPayload
	if err := decodePayload(in.Payload, &payload); err != nil || payload.SenderID == uuid.Nil {
		s.logger.Warn("ws malformed mark_as_read dropped", "err", err)
		return
	}
	if _, err := s.handler.messenger.MarkRead(ctx, s.userID, payload.SenderID); err != nil {
		s.logger.Warn("ws read receipt failed", "err", err, "sender_id", payload.SenderID)
	}
}

// onChatOpened is the implicit read trigger: opening a conversation reads
// everything the peer has sent so far.
func (s *session) onChatOpened(ctx context.Context, in *inboundEvent) {
	var payload chatOpenedPayload
	if err := decodePayload(in.Payload, &payload); err != nil || payload.UserID == uuid.Nil {
		s.logger.Warn("ws malformed chat_opened dropped", "err", err)
		return
	}
	if _, err := s.handler.messenger.MarkRead(ctx, s.userID, payload.UserID); err != nil {
		s.logger.Warn("ws read receipt failed", "err", err, "sender_id", payload.UserID)
	}
}

// stopTypingTimers releases every armed auto-stop timer on disconnect.
func (s *session) stopTypingTimers() {
	s.typingMu.Lock()
	defer s.typingMu.Unlock()
	for id, t := range s.typingTimers {
		t.Stop()
		delete(s.typingTimers, id)
	}
}
