package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"messaging-service/internal/models"
)

// ErrClientClosed is returned by Send after the underlying socket was closed.
var ErrClientClosed = errors.New("client connection closed")

// conn is the write side of a websocket connection. *websocket.Conn satisfies
// it; tests substitute a recording fake.
type conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client wraps one live socket. The coordinator references clients but does
// not own them; the transport goroutine that created a Client closes it.
type Client struct {
	ID          string
	IP          string
	RequestID   string
	ConnectedAt time.Time

	mu     sync.Mutex
	conn   conn
	closed bool
}

// NewClient wraps a connection with a fresh connection id.
func NewClient(c conn) *Client {
	return &Client{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now(),
		conn:        c,
	}
}

// Send writes one envelope to the socket. Writes are serialized because
// gorilla connections do not support concurrent writers.
func (c *Client) Send(env models.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return c.conn.WriteJSON(env)
}

// Close shuts the socket down once. Safe to call from any goroutine and any
// number of times.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}
