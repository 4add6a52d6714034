package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/webitel/im-messaging-service/config"
	"github.com/webitel/im-messaging-service/internal/adapter/pubsub"
	"github.com/webitel/im-messaging-service/internal/domain/model"
	"github.com/webitel/im-messaging-service/internal/domain/registry"
	memoryrepo "github.com/webitel/im-messaging-service/internal/repository/memory"
	"github.com/webitel/im-messaging-service/internal/service"
)

type wsFixture struct {
	srv       *httptest.Server
	messages  *memoryrepo.MessageRepository
	messenger *service.MessengerService
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	hub := registry.NewHub()
	fanout := service.NewFanoutDispatcher(hub, pubsub.NewNoopDispatcher(), logger)
	policy := service.NewPolicyService(memoryrepo.NewConversationRepository(), memoryrepo.NewBlockRepository())
	messages := memoryrepo.NewMessageRepository()
	messenger := service.NewMessengerService(messages, policy, hub, fanout, logger)
	reconciler := service.NewReconcilerService(messages, fanout, logger)

	h := NewWSHandler(logger, service.NewDeliveryService(hub), service.NewAuthService(), messenger, reconciler, fanout, cfg)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &wsFixture{srv: srv, messages: messages, messenger: messenger}
}

// dial opens a socket, authenticates as userID and consumes the welcome frame.
func (f *wsFixture) dial(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	require.NoError(t, ws.WriteJSON(map[string]any{
		"event":   "authenticate",
		"payload": map[string]any{"token": userID.String()},
	}))

	var welcome struct {
		Event string `json:"event"`
	}
	require.NoError(t, ws.ReadJSON(&welcome))
	require.Equal(t, "authenticated", welcome.Event)
	return ws
}

// seed persists a sent message from sender to receiver while the receiver
// is still offline.
func (f *wsFixture) seed(t *testing.T, sender, receiver uuid.UUID) *model.Message {
	t.Helper()
	msg, err := f.messenger.Send(context.Background(), sender, receiver, service.SendInput{Text: "unread"})
	require.NoError(t, err)
	require.Equal(t, model.StateSent, msg.State)
	return msg
}

func (f *wsFixture) requireRead(t *testing.T, id uuid.UUID) {
	t.Helper()
	require.Eventually(t, func() bool {
		stored, err := f.messages.FindByID(context.Background(), id)
		return err == nil && stored.State == model.StateRead
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWS_MarkAsReadAdvancesThread(t *testing.T) {
	f := newWSFixture(t)
	sender := uuid.New()
	reader := uuid.New()
	msg := f.seed(t, sender, reader)

	ws := f.dial(t, reader)
	require.NoError(t, ws.WriteJSON(map[string]any{
		"event":   "mark_as_read",
		"payload": map[string]any{"sender_id": sender.String()},
	}))

	f.requireRead(t, msg.ID)
}

func TestWS_ChatOpenedImplicitlyReadsThread(t *testing.T) {
	f := newWSFixture(t)
	sender := uuid.New()
	reader := uuid.New()
	msg := f.seed(t, sender, reader)

	ws := f.dial(t, reader)
	require.NoError(t, ws.WriteJSON(map[string]any{
		"event":   "chat_opened",
		"payload": map[string]any{"user_id": sender.String()},
	}))

	f.requireRead(t, msg.ID)
}
