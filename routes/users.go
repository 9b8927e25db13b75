package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/services"
)

func RegisterUserRoutes(group *gin.RouterGroup, db *database.Database, userService services.UserServiceInterface) {
	// Image storage is not implemented; the procedure only enforces the
	// admin gate.
	registerMutation(group, "user.addImage", func(c *gin.Context, userID uuid.UUID, _ string) (interface{}, error) {
		if err := userService.RequireAdmin(db.WithContext(c.Request.Context()), userID); err != nil {
			return nil, err
		}
		return nil, nil
	})
}
