package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
	"quick-jot/quickjot/services"
)

type listChildrenInput struct {
	ParentID string `json:"parent_id" binding:"required"`
}

type updateFolderInput struct {
	ID string `json:"id" binding:"required"`
	services.UpdateFolderInput
}

func RegisterFolderRoutes(group *gin.RouterGroup, db *database.Database, folderService services.FolderServiceInterface) {
	registerMutation(group, "folder.create", func(c *gin.Context, userID uuid.UUID, in services.CreateFolderInput) (models.Folder, error) {
		return folderService.CreateFolder(db.WithContext(c.Request.Context()), userID, in)
	})

	registerQuery(group, "folder.list", func(c *gin.Context, userID uuid.UUID, _ struct{}) ([]models.Folder, error) {
		return folderService.ListFolders(db.WithContext(c.Request.Context()), userID)
	})

	registerQuery(group, "folder.listRoot", func(c *gin.Context, userID uuid.UUID, _ struct{}) ([]models.Folder, error) {
		return folderService.ListRootFolders(db.WithContext(c.Request.Context()), userID)
	})

	registerQuery(group, "folder.listChildren", func(c *gin.Context, userID uuid.UUID, in listChildrenInput) ([]models.Folder, error) {
		return folderService.ListChildFolders(db.WithContext(c.Request.Context()), userID, in.ParentID)
	})

	registerQuery(group, "folder.tree", func(c *gin.Context, userID uuid.UUID, _ struct{}) ([]*services.FolderNode, error) {
		return folderService.GetFolderTree(db.WithContext(c.Request.Context()), userID)
	})

	registerQuery(group, "folder.get", func(c *gin.Context, userID uuid.UUID, in idInput) (models.Folder, error) {
		return folderService.GetFolderById(db.WithContext(c.Request.Context()), userID, in.ID)
	})

	registerMutation(group, "folder.update", func(c *gin.Context, userID uuid.UUID, in updateFolderInput) (models.Folder, error) {
		return folderService.UpdateFolder(db.WithContext(c.Request.Context()), userID, in.ID, in.UpdateFolderInput)
	})

	registerMutation(group, "folder.delete", func(c *gin.Context, userID uuid.UUID, in idInput) (successResponse, error) {
		if err := folderService.DeleteFolder(db.WithContext(c.Request.Context()), userID, in.ID); err != nil {
			return successResponse{}, err
		}
		return successResponse{Success: true}, nil
	})

	registerMutation(group, "folder.ensureDefaultFolder", func(c *gin.Context, userID uuid.UUID, _ struct{}) (services.EnsureDefaultFolderResult, error) {
		return folderService.EnsureDefaultFolder(db.WithContext(c.Request.Context()), userID)
	})
}
