package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	FolderCreated EventType = "folder.created"
	FolderUpdated EventType = "folder.updated"
	FolderDeleted EventType = "folder.deleted"

	NoteCreated EventType = "note.created"
	NoteUpdated EventType = "note.updated"
	NoteMoved   EventType = "note.moved"
	NotePinned  EventType = "note.pinned"
	NoteDeleted EventType = "note.deleted"

	UserCreated EventType = "user.created"
)

const (
	EventStatusPending    = "pending"
	EventStatusDispatched = "dispatched"
)

// Event is an outbox record written in the same transaction as the change it
// describes and later dispatched to the broker and connected clients.
type Event struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Event        string     `gorm:"not null" json:"event"`
	Version      int        `gorm:"not null" json:"version"`
	Entity       string     `gorm:"not null" json:"entity"`
	Operation    string     `gorm:"not null" json:"operation"`
	ActorID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"actor_id"`
	Timestamp    time.Time  `gorm:"not null;index" json:"timestamp"`
	Data         JSON       `gorm:"not null" json:"data"`
	Status       string     `gorm:"not null;default:'pending'" json:"status"`
	Dispatched   bool       `gorm:"not null;default:false;index" json:"dispatched"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

func NewEvent(event EventType, entity, operation string, actorID uuid.UUID, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Event:     string(event),
		Version:   1,
		Entity:    entity,
		Operation: operation,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Data:      dataBytes,
		Status:    EventStatusPending,
	}, nil
}
