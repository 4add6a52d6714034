/*
Package registry implements the in-process presence registry: the single
authoritative answer to "does this user have a live connection right now".

Key architectural concepts:
  - Single-session presence: a user maps to at most ONE connector; a second
    connection from the same identity supersedes the first. There is no
    multi-device fanout in this design.
  - Rooms: every authenticated connection joins a broadcast room named after
    its own user id. Room delivery is the redundant second path of the fanout
    dispatcher, resilient to a direct handle going stale mid-send.
  - Concurrency: lock-free user lookups via sync.Map; the room index uses a
    fine-grained RWMutex because room membership changes are rare compared
    to broadcasts.

Nothing here persists. After a process restart every user is offline until
they reconnect, which the at-least-once reconciliation model tolerates.
*/
package registry

import (
	"sync"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/event"
)

// Hubber defines the gateway for presence tracking and event routing.
type Hubber interface {
	Register(conn Connector) (superseded bool)
	Unregister(userID, connID uuid.UUID) bool
	IsOnline(userID uuid.UUID) bool
	Resolve(userID uuid.UUID) (Connector, bool)

	JoinRoom(room string, conn Connector)
	LeaveRoom(room string, connID uuid.UUID)
	BroadcastRoom(room string, ev event.Eventer) int
	BroadcastAll(ev event.Eventer, except uuid.UUID) int

	Shutdown()
}

// Interface guard
var _ Hubber = (*Hub)(nil)

// Hub is the concrete presence registry. Constructible and resettable;
// no package-level singleton.
type Hub struct {
	// users stores Map[uuid.UUID]Connector. Optimized for [READ_HEAVY] lookups.
	users sync.Map

	// rooms indexes connectors by room name, then by connection id so a
	// stale member can be evicted without holding its user entry.
	roomsMu sync.RWMutex
	rooms   map[string]map[uuid.UUID]Connector

	config hubConfig
}

type hubConfig struct {
	mailboxSize int
	sendTimeout sendTimeout
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		rooms: make(map[string]map[uuid.UUID]Connector),
		config: hubConfig{
			mailboxSize: defaultMailboxSize,
			sendTimeout: defaultSendTimeout,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MailboxSize exposes the configured per-connection buffer capacity so the
// service layer can build connectors without duplicating the knob.
func (h *Hub) MailboxSize() int { return h.config.mailboxSize }

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	_, ok := h.users.Load(userID)
	return ok
}

// Resolve returns the live connector for userID, if any.
func (h *Hub) Resolve(userID uuid.UUID) (Connector, bool) {
	if val, ok := h.users.Load(userID); ok {
		if conn, ok := val.(Connector); ok {
			return conn, true
		}
	}
	return nil, false
}

// Register installs conn as the user's single live connection,
// unconditionally superseding (and closing) any previous one.
func (h *Hub) Register(conn Connector) bool {
	prev, loaded := h.users.Swap(conn.GetUserID(), conn)
	if !loaded {
		return false
	}
	if old, ok := prev.(Connector); ok && old.GetID() != conn.GetID() {
		// The superseded session is torn down here; its own disconnect
		// handler will later call Unregister with a stale conn id, which
		// the guard below ignores.
		h.evictFromRooms(old.GetID())
		old.Close()
		return true
	}
	return false
}

// Unregister removes the entry only if connID is still the connection on
// record. A stale disconnect arriving after a fast reconnect must not evict
// the newer session.
func (h *Hub) Unregister(userID, connID uuid.UUID) bool {
	val, ok := h.users.Load(userID)
	if !ok {
		return false
	}
	conn, ok := val.(Connector)
	if !ok || conn.GetID() != connID {
		return false
	}
	h.users.CompareAndDelete(userID, val)
	h.evictFromRooms(connID)
	conn.Close()
	return true
}

// JoinRoom subscribes conn to a named broadcast room. Joining twice is a
// no-op overwrite.
func (h *Hub) JoinRoom(room string, conn Connector) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[uuid.UUID]Connector)
		h.rooms[room] = members
	}
	members[conn.GetID()] = conn
}

func (h *Hub) LeaveRoom(room string, connID uuid.UUID) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// BroadcastRoom pushes ev to every member of the room, returning the number
// of successful sends. An unknown room is a silent zero, not an error.
func (h *Hub) BroadcastRoom(room string, ev event.Eventer) int {
	h.roomsMu.RLock()
	members := make([]Connector, 0, len(h.rooms[room]))
	for _, conn := range h.rooms[room] {
		members = append(members, conn)
	}
	h.roomsMu.RUnlock()

	sent := 0
	for _, conn := range members {
		if conn.Send(ev, h.config.sendTimeout.direct) {
			sent++
		}
	}
	return sent
}

// BroadcastAll pushes ev to every registered user except the one named.
// Used for the user_online / user_offline presence announcements.
func (h *Hub) BroadcastAll(ev event.Eventer, except uuid.UUID) int {
	sent := 0
	h.users.Range(func(key, val any) bool {
		if key == except {
			return true
		}
		if conn, ok := val.(Connector); ok {
			if conn.Send(ev, h.config.sendTimeout.broadcast) {
				sent++
			}
		}
		return true
	})
	return sent
}

// Shutdown closes every live connection. [GRACEFUL_SHUTDOWN]
func (h *Hub) Shutdown() {
	h.users.Range(func(key, val any) bool {
		if conn, ok := val.(Connector); ok {
			conn.Close()
		}
		h.users.Delete(key)
		return true
	})
	h.roomsMu.Lock()
	h.rooms = make(map[string]map[uuid.UUID]Connector)
	h.roomsMu.Unlock()
}

func (h *Hub) evictFromRooms(connID uuid.UUID) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for room, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}
