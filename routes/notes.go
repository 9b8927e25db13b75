package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
	"quick-jot/quickjot/services"
)

type updateNoteInput struct {
	ID string `json:"id" binding:"required"`
	services.UpdateNoteInput
}

type moveNoteInput struct {
	ID string `json:"id" binding:"required"`
	services.MoveNoteInput
}

type searchInput struct {
	Q string `json:"q"`
}

func RegisterNoteRoutes(group *gin.RouterGroup, db *database.Database, noteService services.NoteServiceInterface) {
	registerMutation(group, "note.create", func(c *gin.Context, userID uuid.UUID, in services.CreateNoteInput) (models.Note, error) {
		return noteService.CreateNote(db.WithContext(c.Request.Context()), userID, in)
	})

	registerQuery(group, "note.list", func(c *gin.Context, userID uuid.UUID, in services.NoteFilter) ([]models.Note, error) {
		return noteService.ListNotes(db.WithContext(c.Request.Context()), userID, in)
	})

	registerQuery(group, "note.get", func(c *gin.Context, userID uuid.UUID, in idInput) (models.Note, error) {
		return noteService.GetNoteById(db.WithContext(c.Request.Context()), userID, in.ID)
	})

	registerMutation(group, "note.update", func(c *gin.Context, userID uuid.UUID, in updateNoteInput) (models.Note, error) {
		return noteService.UpdateNote(db.WithContext(c.Request.Context()), userID, in.ID, in.UpdateNoteInput)
	})

	registerMutation(group, "note.move", func(c *gin.Context, userID uuid.UUID, in moveNoteInput) (models.Note, error) {
		return noteService.MoveNote(db.WithContext(c.Request.Context()), userID, in.ID, in.MoveNoteInput)
	})

	registerMutation(group, "note.togglePin", func(c *gin.Context, userID uuid.UUID, in idInput) (models.Note, error) {
		return noteService.ToggleNotePin(db.WithContext(c.Request.Context()), userID, in.ID)
	})

	registerMutation(group, "note.delete", func(c *gin.Context, userID uuid.UUID, in idInput) (successResponse, error) {
		if err := noteService.DeleteNote(db.WithContext(c.Request.Context()), userID, in.ID); err != nil {
			return successResponse{}, err
		}
		return successResponse{Success: true}, nil
	})

	registerQuery(group, "note.globalSearch", func(c *gin.Context, userID uuid.UUID, in searchInput) ([]services.NoteSearchResult, error) {
		return noteService.SearchNotes(db.WithContext(c.Request.Context()), userID, in.Q)
	})
}
