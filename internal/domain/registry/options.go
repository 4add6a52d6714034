package registry

import "time"

const defaultMailboxSize = 1024

var defaultSendTimeout = sendTimeout{
	direct:    500 * time.Millisecond,
	broadcast: 50 * time.Millisecond,
}

// sendTimeout separates the wait allowed for targeted sends from the much
// stricter one used while ranging over every connection.
type sendTimeout struct {
	direct    time.Duration
	broadcast time.Duration
}

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithMailboxSize sets the [BACKPRESSURE] threshold: the buffer capacity
// of each connection's mailbox.
func WithMailboxSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.config.mailboxSize = size
		}
	}
}

// WithSendTimeout bounds how long a targeted send may wait on a saturated
// mailbox before shedding.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.config.sendTimeout.direct = d
		}
	}
}
