package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"quick-jot/quickjot/models"
)

// recordEvent appends an outbox entry inside the caller's transaction.
func recordEvent(tx *gorm.DB, eventType models.EventType, entity, operation string, actorID uuid.UUID, data interface{}) error {
	event, err := models.NewEvent(eventType, entity, operation, actorID, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("record %s event: %w", eventType, err)
	}
	return nil
}

func folderEventData(folder models.Folder) map[string]interface{} {
	return map[string]interface{}{
		"folder_id":  folder.ID.String(),
		"name":       folder.Name,
		"parent_id":  folder.ParentID,
		"is_default": folder.IsDefault,
	}
}

func noteEventData(note models.Note) map[string]interface{} {
	return map[string]interface{}{
		"note_id":   note.ID.String(),
		"folder_id": note.FolderID.String(),
		"title":     note.Title,
		"pinned":    note.Pinned,
	}
}
