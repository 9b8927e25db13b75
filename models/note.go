package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxNoteTitleLength = 500

type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(500);not null;default:''" json:"title"`
	Content   JSON      `json:"content"`
	PlainText string    `gorm:"type:text;not null;default:''" json:"plain_text"`
	Pinned    bool      `gorm:"not null;default:false" json:"pinned"`
	FolderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"folder_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// SetContent stores doc as the note's content and refreshes the plain-text
// projection. A nil doc clears both.
func (n *Note) SetContent(doc *Document) error {
	if doc == nil {
		n.Content = nil
		n.PlainText = ""
		return nil
	}
	content, err := NewJSON(doc)
	if err != nil {
		return err
	}
	n.Content = content
	n.PlainText = ExtractPlainText(doc)
	return nil
}

// Document decodes the note's content.
func (n *Note) Document() (*Document, error) {
	return ParseDocument(n.Content)
}
