package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client wraps a WebSocket connection for one authenticated parent. A
// parent may hold several clients at once (one per device or browser tab).
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	parentID uuid.UUID

	mu     sync.RWMutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, parentID uuid.UUID) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		parentID: parentID,
	}
}

// ReadPump drains the connection until it drops. The event stream is
// one-way, so inbound frames are discarded; the loop exists to answer
// pings and to detect disconnects.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("parentId", c.parentID.String()).Msg("websocket read error")
			}
			break
		}
	}
}

// WritePump pushes queued events to the connection and keeps it alive
// with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send queues an event for delivery to this client.
func (c *Client) Send(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal websocket event")
		return
	}
	c.trySend(data)
}

// trySend delivers data to the send channel unless the client is closed
// or its buffer is full. Slow consumers lose events rather than block
// the hub.
func (c *Client) trySend(data []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer full, drop the event
	}
}

// Close marks the client as closed and closes its send channel.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.send)
}

// ParentID returns the authenticated parent that owns this connection.
func (c *Client) ParentID() uuid.UUID {
	return c.parentID
}
