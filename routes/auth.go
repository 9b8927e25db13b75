package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
	"quick-jot/quickjot/services"
)

type registerResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// RegisterAuthRoutes mounts the public auth.* procedures.
func RegisterAuthRoutes(group *gin.RouterGroup, db *database.Database, authService services.AuthServiceInterface, userService services.UserServiceInterface) {
	registerMutation(group, "auth.register", func(c *gin.Context, _ uuid.UUID, in services.RegisterInput) (registerResponse, error) {
		user, err := userService.CreateUser(db.WithContext(c.Request.Context()), in)
		if err != nil {
			return registerResponse{}, err
		}
		token, err := authService.IssueToken(user)
		if err != nil {
			return registerResponse{}, err
		}
		return registerResponse{Token: token, User: user}, nil
	})

	registerMutation(group, "auth.login", func(c *gin.Context, _ uuid.UUID, in services.LoginInput) (loginResponse, error) {
		token, err := authService.Login(db.WithContext(c.Request.Context()), in.Email, in.Password)
		if err != nil {
			return loginResponse{}, err
		}
		return loginResponse{Token: token}, nil
	})
}
