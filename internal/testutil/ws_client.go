package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/kidolearn/kidolearn-api/internal/websocket"
)

// WSClient is a test client for the activity feed socket. The protocol
// is one-way: the server pushes events, the client never sends.
type WSClient struct {
	t      *testing.T
	conn   *gorillaWS.Conn
	events chan *websocket.Event
	errors chan error
	done   chan struct{}
	mu     sync.Mutex
}

// NewWSClient connects to the feed and starts reading
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := &gorillaWS.Dialer{HandshakeTimeout: 5 * time.Second}

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:      t,
		conn:   conn,
		events: make(chan *websocket.Event, 100),
		errors: make(chan error, 10),
		done:   make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// DialError reports whether connecting to the given URL fails, along
// with the handshake response status code when one was received.
func DialError(t *testing.T, url string) (int, bool) {
	t.Helper()

	dialer := &gorillaWS.Dialer{HandshakeTimeout: 5 * time.Second}

	conn, resp, err := dialer.Dial(url, nil)
	if err == nil {
		conn.Close()
		return 0, false
	}
	if resp != nil {
		return resp.StatusCode, true
	}
	return 0, true
}

// readPump reads events from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.events)
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				select {
				case <-c.done:
					return
				case c.errors <- err:
				}
				return
			}

			var event websocket.Event
			if err := json.Unmarshal(data, &event); err != nil {
				c.errors <- err
				continue
			}

			select {
			case c.events <- &event:
			case <-c.done:
				return
			}
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// ExpectEvent waits for an event of the specified type, skipping others
func (c *WSClient) ExpectEvent(eventType websocket.EventType, timeout time.Duration) *websocket.Event {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case event := <-c.events:
			if event == nil {
				c.t.Fatalf("connection closed while waiting for %s", eventType)
			}
			if event.Type == eventType {
				return event
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", eventType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for event type %s", eventType)
		}
	}
}

// ExpectSessionStarted waits for and decodes a session.started event
func (c *WSClient) ExpectSessionStarted(timeout time.Duration) *websocket.SessionStartedData {
	c.t.Helper()

	event := c.ExpectEvent(websocket.EventTypeSessionStarted, timeout)

	var data websocket.SessionStartedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		c.t.Fatalf("failed to decode session started data: %v", err)
	}

	return &data
}

// ExpectSessionEnded waits for and decodes a session.ended event
func (c *WSClient) ExpectSessionEnded(timeout time.Duration) *websocket.SessionEndedData {
	c.t.Helper()

	event := c.ExpectEvent(websocket.EventTypeSessionEnded, timeout)

	var data websocket.SessionEndedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		c.t.Fatalf("failed to decode session ended data: %v", err)
	}

	return &data
}

// ExpectNoEvent asserts that nothing arrives within the window
func (c *WSClient) ExpectNoEvent(window time.Duration) {
	c.t.Helper()

	select {
	case event := <-c.events:
		if event != nil {
			c.t.Fatalf("unexpected event %s", event.Type)
		}
	case <-time.After(window):
	}
}
