package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeSessionStarted EventType = "session.started"
	EventTypeSessionEnded   EventType = "session.ended"
)

// Event is the envelope for every server-to-client frame. Data holds the
// event-specific payload already marshalled to JSON.
type Event struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func NewEvent(eventType EventType, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Data:      dataBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type SessionStartedData struct {
	ChildID   uuid.UUID `json:"childId"`
	ChildName string    `json:"childName"`
	SessionID string    `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
}

type SessionEndedData struct {
	ChildID   uuid.UUID `json:"childId"`
	ChildName string    `json:"childName"`
	SessionID string    `json:"sessionId"`
	Duration  int64     `json:"duration"`
}
