package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebSocketMessageType represents message type constants
type WebSocketMessageType string

const (
	// Server to client
	EventMessage WebSocketMessageType = "event"
	ErrorMessage WebSocketMessageType = "error"
	AckMessage   WebSocketMessageType = "ack"

	// Client to server
	NoteOpenMessage  WebSocketMessageType = "note.open"
	NoteEditMessage  WebSocketMessageType = "note.edit"
	NoteCloseMessage WebSocketMessageType = "note.close"
)

// StandardMessage is the envelope for every message on the realtime channel.
// UserID scopes delivery and is never sent to clients.
type StandardMessage struct {
	ID        string               `json:"id"`
	Type      WebSocketMessageType `json:"type"`
	Event     string               `json:"event,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   json.RawMessage      `json:"payload,omitempty"`
	UserID    uuid.UUID            `json:"-"`
}

// NewStandardMessage creates a new standard message
func NewStandardMessage(msgType WebSocketMessageType, event string, payload interface{}) (*StandardMessage, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return &StandardMessage{
		ID:        uuid.New().String(),
		Type:      msgType,
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// ForUser scopes the message to a single user's connections.
func (m *StandardMessage) ForUser(userID uuid.UUID) *StandardMessage {
	m.UserID = userID
	return m
}

// EventEnvelope is the broker payload for a dispatched outbox event.
type EventEnvelope struct {
	EventID   uuid.UUID       `json:"event_id"`
	Event     string          `json:"event"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	UserID    uuid.UUID       `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEventEnvelope converts an outbox record into its broker payload.
func NewEventEnvelope(event Event) EventEnvelope {
	data := json.RawMessage(event.Data)
	if event.Data.IsNull() {
		data = json.RawMessage("{}")
	}
	return EventEnvelope{
		EventID:   event.ID,
		Event:     event.Event,
		Entity:    event.Entity,
		Operation: event.Operation,
		UserID:    event.ActorID,
		Timestamp: event.Timestamp,
		Data:      data,
	}
}

// ToMessage wraps the envelope for delivery to the owning user's clients.
func (e EventEnvelope) ToMessage() (*StandardMessage, error) {
	msg, err := NewStandardMessage(EventMessage, e.Event, e)
	if err != nil {
		return nil, err
	}
	return msg.ForUser(e.UserID), nil
}
