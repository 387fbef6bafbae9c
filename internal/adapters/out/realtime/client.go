package realtime

import (
	"sync"
)

// DefaultSendBuffer is the number of undelivered events a client may hold.
const DefaultSendBuffer = 64

// Client is a Subscriber backed by a buffered channel. The transport drains
// Send from its writer goroutine.
type Client struct {
	id   string
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{id: id, send: make(chan []byte, buffer)}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Send() <-chan []byte {
	return c.send
}

func (c *Client) Deliver(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close stops delivery and closes Send. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
