package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client serializes writes to a single underlying connection. The websocket
// transport allows at most one writer at a time; broadcast fan-out and
// per-connection sends (echo replies, heartbeats) share one Client so their
// frames never interleave.
type Client struct {
	mu   sync.Mutex
	conn Conn
}

// NewClient wraps conn for registry use.
func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

// WriteMessage sends a single frame, holding the write lock.
func (c *Client) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// WriteJSON marshals v and sends it as one text frame.
func (c *Client) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

// writeWithDeadline sets the write deadline and sends the frame under a
// single hold of the lock, so another sender cannot shrink the window.
func (c *Client) writeWithDeadline(data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
