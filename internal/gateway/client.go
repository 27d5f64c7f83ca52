package gateway

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/ghoulgame/internal/model"
)

// Transport is how a connection reaches the server
type Transport string

const (
	TransportWebSocket Transport = "websocket"
	TransportHTTP      Transport = "http"
)

const (
	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// message is one encoded notification waiting to be written
type message struct {
	kind model.NotificationType
	body []byte
}

// Client is one open connection. Outbound messages are buffered and dropped, never
// blocked on, when the buffer is full.
type Client struct {
	id          model.ConnectionID
	transport   Transport
	connectedAt time.Time

	send      chan message
	done      chan struct{}
	closeOnce sync.Once

	lastSeen  atomic.Int64
	streaming atomic.Bool
}

func newClient(id model.ConnectionID, transport Transport, now time.Time) *Client {
	c := &Client{
		id:          id,
		transport:   transport,
		connectedAt: now,
		send:        make(chan message, sendBufferSize),
		done:        make(chan struct{}),
	}
	c.lastSeen.Store(now.UnixNano())
	return c
}

// ID returns the connection ID
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// Transport returns how the client is connected
func (c *Client) Transport() Transport {
	return c.transport
}

// Done is closed once the connection has been dropped
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// enqueue queues a message without blocking. It returns false if the client is closed or
// its buffer is full.
func (c *Client) enqueue(m message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

func (c *Client) touch(now time.Time) {
	c.lastSeen.Store(now.UnixNano())
}

func (c *Client) idleSince() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
