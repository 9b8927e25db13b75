package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/middleware"
	"quick-jot/quickjot/services"
)

const RPCPrefix = "/api/v1/rpc"

type Dependencies struct {
	DB               *database.Database
	AuthService      services.AuthServiceInterface
	UserService      services.UserServiceInterface
	FolderService    services.FolderServiceInterface
	NoteService      services.NoteServiceInterface
	WebSocketService services.WebSocketServiceInterface

	Redis          *redis.Client
	RateLimit      int
	AllowedOrigins string
	Logger         *zap.Logger
}

func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		middleware.RequestLogger(deps.Logger),
		gin.Recovery(),
		middleware.CORSMiddleware(deps.AllowedOrigins),
		middleware.RateLimit(deps.Redis, deps.RateLimit, deps.Logger),
	)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: errorBody{Code: services.KindNotFound, Message: "Procedure not found"}})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: errorBody{Code: "METHOD_NOT_SUPPORTED", Message: "Method not allowed"}})
	})

	router.GET("/health", func(c *gin.Context) { Health(c, deps.DB) })

	rpc := router.Group(RPCPrefix)
	RegisterAuthRoutes(rpc, deps.DB, deps.AuthService, deps.UserService)

	protected := rpc.Group("", middleware.AuthMiddleware(deps.AuthService))
	RegisterFolderRoutes(protected, deps.DB, deps.FolderService)
	RegisterNoteRoutes(protected, deps.DB, deps.NoteService)
	RegisterUserRoutes(protected, deps.DB, deps.UserService)

	if deps.WebSocketService != nil {
		RegisterWebSocketRoutes(router, deps.AuthService, deps.WebSocketService)
	}
	return router
}

func Health(c *gin.Context, db *database.Database) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
