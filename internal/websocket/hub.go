package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/domain"
)

// Hub fans session events out to the WebSocket connections of each
// parent. Connections are grouped by parent ID so an event reaches every
// device the parent currently has open, and nobody else's.
type Hub struct {
	parents    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		parents:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run starts the hub event loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true

			for _, clients := range h.parents {
				for client := range clients {
					client.Close()
				}
			}
			h.parents = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()

			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				clients, ok := h.parents[client.parentID]
				if !ok {
					clients = make(map[*Client]bool)
					h.parents[client.parentID] = clients
				}
				clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if !h.stopped {
				if clients, ok := h.parents[client.parentID]; ok {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						client.Close()

						if len(clients) == 0 {
							delete(h.parents, client.parentID)
						}
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop gracefully shuts down the hub. It blocks until Run() has exited
// and every client channel is closed.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client, handling the case where the hub may
// already be stopped.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	// Non-blocking send in case the hub is in the process of stopping
	select {
	case h.unregister <- client:
	default:
	}
}

// ClientCount returns the number of open connections for a parent.
func (h *Hub) ClientCount(parentID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.parents[parentID])
}

// BroadcastSessionStarted notifies a parent's devices that one of their
// children opened an app session.
func (h *Hub) BroadcastSessionStarted(parentID uuid.UUID, session *domain.AppSession, child *domain.Child) {
	event, err := NewEvent(EventTypeSessionStarted, SessionStartedData{
		ChildID:   child.ID,
		ChildName: child.Name,
		SessionID: session.SessionID,
		StartTime: session.StartTime.UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build session.started event")
		return
	}
	h.broadcast(parentID, event)
}

// BroadcastSessionEnded notifies a parent's devices that a session was
// closed, including its final duration in seconds.
func (h *Hub) BroadcastSessionEnded(parentID uuid.UUID, session *domain.AppSession, child *domain.Child) {
	var duration int64
	if session.Duration != nil {
		duration = *session.Duration
	}
	event, err := NewEvent(EventTypeSessionEnded, SessionEndedData{
		ChildID:   child.ID,
		ChildName: child.Name,
		SessionID: session.SessionID,
		Duration:  duration,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build session.ended event")
		return
	}
	h.broadcast(parentID, event)
}

func (h *Hub) broadcast(parentID uuid.UUID, event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}
	for client := range h.parents[parentID] {
		client.Send(event)
	}
}
