// internal/hub/client.go
package hub

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Client is one websocket connection. Outbound envelopes are queued on send
// and written by the client's write pump, so Send never waits on the network.
type Client struct {
	id         string
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string

	mu     sync.RWMutex
	closed bool
}

func newClient(conn *websocket.Conn, bufferSize int, remoteAddr string) *Client {
	return &Client{
		id:         uuid.NewString(),
		conn:       conn,
		send:       make(chan []byte, bufferSize),
		remoteAddr: remoteAddr,
	}
}

func (c *Client) ID() string { return c.id }

// Send queues payload for the write pump. It fails with ErrSendBufferFull when
// the client is not keeping up and ErrConnClosed once the client has gone.
func (c *Client) Send(payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close closes the underlying websocket. The read pump then observes the
// error and runs the disconnect path.
func (c *Client) Close() error {
	return c.conn.Close()
}

// finish stops accepting sends and lets the write pump drain and exit.
func (c *Client) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// isExpectedCloseError reports errors that only mean the peer already went away.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe")
}
