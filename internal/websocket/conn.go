package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 90 * time.Second
)

// Conn wraps a gorilla connection with a write lock so the tick pusher and
// the read-loop responder can share it safely.
type Conn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Wrap creates a Conn around an upgraded websocket connection.
func Wrap(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// WriteJSON sends a payload with a write deadline.
func (c *Conn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// WriteError sends an error event.
func (c *Conn) WriteError(msg string) error {
	return c.WriteJSON(EventPayload{Event: EventError, Error: msg})
}

// ReadJSON reads the next client message with a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	return c.conn.ReadJSON(v)
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
