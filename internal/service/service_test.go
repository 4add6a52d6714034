package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/event"
	"github.com/webitel/im-messaging-service/internal/domain/registry"
	memoryrepo "github.com/webitel/im-messaging-service/internal/repository/memory"
)

// capturingFanout records every pushed event instead of delivering it.
type capturingFanout struct {
	mu     sync.Mutex
	events []event.Eventer
}

func (f *capturingFanout) Push(_ context.Context, ev event.Eventer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *capturingFanout) PushLocal(ev event.Eventer) bool {
	f.Push(context.Background(), ev)
	return true
}

func (f *capturingFanout) byKind(kind event.EventKind) []event.Eventer {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []event.Eventer
	for _, ev := range f.events {
		if ev.GetKind() == kind {
			res = append(res, ev)
		}
	}
	return res
}

func (f *capturingFanout) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture bundles a fully wired in-memory delivery core.
type fixture struct {
	hub       *registry.Hub
	fanout    *capturingFanout
	messages  *memoryrepo.MessageRepository
	policy    *PolicyService
	messenger *MessengerService
}

func newFixture() *fixture {
	hub := registry.NewHub()
	fanout := &capturingFanout{}
	messages := memoryrepo.NewMessageRepository()
	policy := NewPolicyService(memoryrepo.NewConversationRepository(), memoryrepo.NewBlockRepository())

	return &fixture{
		hub:       hub,
		fanout:    fanout,
		messages:  messages,
		policy:    policy,
		messenger: NewMessengerService(messages, policy, hub, fanout, discardLogger()),
	}
}

// connect registers a live session for userID and returns its connector.
func (f *fixture) connect(userID uuid.UUID) registry.Connector {
	conn := registry.NewConnector(context.Background(), userID, 64)
	f.hub.Register(conn)
	return conn
}

func within(t time.Time, want time.Time, tolerance time.Duration) bool {
	d := t.Sub(want)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
