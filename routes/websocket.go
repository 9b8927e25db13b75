package routes

import (
	"github.com/gin-gonic/gin"
	"quick-jot/quickjot/middleware"
	"quick-jot/quickjot/services"
)

// RegisterWebSocketRoutes mounts the realtime endpoint. Browsers cannot set
// headers on upgrade requests, so the token may also come from ?token=.
func RegisterWebSocketRoutes(router *gin.Engine, authService services.AuthServiceInterface, wsService services.WebSocketServiceInterface) {
	router.GET("/ws", middleware.AuthMiddleware(authService), func(c *gin.Context) {
		wsService.HandleConnection(c.Writer, c.Request, currentUserID(c))
	})
}
