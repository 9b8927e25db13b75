package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultFolderName   = "Notes"
	MaxFolderNameLength = 255
)

// Folder is a node of a user's folder hierarchy. At most one folder per user
// is flagged default, enforced by a partial unique index.
type Folder struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_folders_user_default,where:is_default = true" json:"user_id"`
	IsDefault bool       `gorm:"not null;default:false" json:"is_default"`
	Children  []Folder   `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Notes     []Note     `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// HasParent reports whether the folder is nested under another folder.
func (f *Folder) HasParent() bool {
	return f.ParentID != nil && *f.ParentID != uuid.Nil
}
