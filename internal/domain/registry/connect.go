package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/event"
)

// Interface guard
var _ Connector = (*connect)(nil)

// [CONNECTOR] THE INTERFACE FOR EXTERNAL LAYERS (HUB/SERVICE/TRANSPORT)
// This allows mocking and decoupling from the concrete implementation
type Connector interface {
	GetID() uuid.UUID
	GetUserID() uuid.UUID
	Send(ev event.Eventer, timeout time.Duration) bool // Thread-safe send with backpressure handling
	Recv() <-chan event.Eventer                        // Capture once per session: pooled reuse swaps the channel
	Close()                                            // Terminate connection and release resources
}

// [METADATA] EXPORTED FOR TRANSPORT AND ANALYTICS LAYERS
type ConnectMetadata struct {
	Platform  string
	Version   string
	RemoteIP  string
	UserAgent string
}

// [CONNECT] CONCRETE IMPLEMENTATION (UNEXPORTED TO FORCE INTERFACE USAGE)
type connect struct {
	id        uuid.UUID
	userID    uuid.UUID
	metadata  ConnectMetadata
	createdAt time.Time

	ctx      context.Context
	cancelFn context.CancelFunc

	sendCh    chan event.Eventer
	closeOnce sync.Once // [PROTECTION]

	// [ATOMIC_FIELDS] Optimized for lock-free accounting
	lastActivityAt int64
	droppedCount   uint64
}

// [POOL] SYNC.POOL FOR OBJECT REUSE (REDUCES GC PRESSURE)
var connectPool = sync.Pool{
	New: func() any {
		return &connect{}
	},
}

// NewConnector acquires a pooled connector bound to ctx. The mailbox
// decouples the hub from the transport's write loop so a slow socket
// never stalls a broadcast.
func NewConnector(ctx context.Context, userID uuid.UUID, bufferSize int) Connector {
	c := connectPool.Get().(*connect)

	childCtx, cancel := context.WithCancel(ctx)

	// [BLANK_SLATE_ASSIGNMENT]
	// Reassigning the value wipes stale fields from the pooled object and
	// resets the sync.Once guard in a single move.
	*c = connect{
		id:             uuid.New(),
		userID:         userID,
		createdAt:      time.Now(),
		ctx:            childCtx,
		cancelFn:       cancel,
		sendCh:         make(chan event.Eventer, bufferSize),
		lastActivityAt: time.Now().UnixNano(),
	}

	return c
}

// --- IMPLEMENTATION OF CONNECTOR INTERFACE ---

func (c *connect) GetID() uuid.UUID     { return c.id }
func (c *connect) GetUserID() uuid.UUID { return c.userID }

// Send attempts to push an event into the mailbox.
// If the channel is full, it tries to evict lower priority events to make room.
func (c *connect) Send(ev event.Eventer, timeout time.Duration) bool {
	atomic.StoreInt64(&c.lastActivityAt, time.Now().UnixNano())

	select {
	case <-c.ctx.Done():
		return false
	case c.sendCh <- ev:
		return true
	default:
		// Mailbox saturated: initiate priority shedding.
		return c.handleBackpressure(ev, timeout)
	}
}

// handleBackpressure manages full buffers by dropping low-priority events.
// Typing indicators and presence chatter are the first to go; message and
// receipt events fight for the slot.
func (c *connect) handleBackpressure(ev event.Eventer, timeout time.Duration) bool {
	if ev.GetPriority() <= event.PriorityLow {
		atomic.AddUint64(&c.droppedCount, 1)
		return false
	}

	// Try to evict one existing low-priority event to make room.
	select {
	case oldEv := <-c.sendCh:
		if oldEv.GetPriority() < ev.GetPriority() {
			c.sendCh <- ev
			return true
		}
		// The evicted event was equally important; put it back best-effort.
		select {
		case c.sendCh <- oldEv:
		default:
		}
	case <-time.After(timeout):
		// Hard timeout reached
	}

	atomic.AddUint64(&c.droppedCount, 1)
	return false
}

func (c *connect) Recv() <-chan event.Eventer { return c.sendCh }

// Close terminates the session, triggers cleanup, and recycles the object.
func (c *connect) Close() {
	// [IDEMPOTENCY_SHIELD]
	// Teardown runs exactly once even when the Hub (supersede), the
	// transport handler (defer) and Shutdown race on the same connector.
	c.closeOnce.Do(func() {
		c.cancelFn()

		// Closing the mailbox signals the transport pump (via !ok) to send
		// a final goodbye frame and exit its loop. The closed channel stays
		// referenced so a pump mid-select still observes the signal; the
		// blank-slate assignment on reuse replaces it.
		if c.sendCh != nil {
			close(c.sendCh)
		}

		// [MEMORY_SANITIZATION] drop references before pooling
		c.metadata = ConnectMetadata{}

		connectPool.Put(c)
	})
}
