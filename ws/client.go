package ws

import (
	"errors"
	"sync"

	"todo_backend/internal/logger"

	"github.com/gorilla/websocket"
)

// ErrSendBufferFull means the session's outbound buffer overflowed; the
// event is dropped and the client converges on its next full refetch.
var ErrSendBufferFull = errors.New("ws: send buffer full")

// ErrSessionClosed means the session was unregistered; the event is dropped.
var ErrSessionClosed = errors.New("ws: session closed")

const sendBufferSize = 256

// Client is one live websocket session. Outbound messages go through the
// buffered Send channel, which gives each session a single ordered stream.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan any

	hub *Hub

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan any, sendBufferSize),
		hub:    hub,
	}
}

// Push implements dispatcher.Session. It never blocks the dispatcher: a
// closed session or a full buffer drops the message instead. Push and
// closeSend share the mutex, so a push can never race the channel close.
func (c *Client) Push(message any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSessionClosed
	}
	select {
	case c.Send <- message:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// closeSend closes the outbound stream exactly once. Only the hub calls it.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// readPump drains inbound frames until the connection closes, then
// unregisters the session. Clients talk to the server over HTTP, so inbound
// frames are only pings/closes.
func (c *Client) readPump() {
	defer func() {
		// After Stop the Run loop is gone; Stop already closed every session.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

// writePump serializes the Send stream onto the connection in order.
func (c *Client) writePump() {
	defer c.Conn.Close()

	for msg := range c.Send {
		if err := c.Conn.WriteJSON(msg); err != nil {
			logger.Debug("ws write error", "user_id", c.UserID, "error", err)
			return
		}
	}
}
