package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"quick-jot/quickjot/broker"
	"quick-jot/quickjot/config"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/logging"
	"quick-jot/quickjot/routes"
	"quick-jot/quickjot/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Must("development").Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := logging.Must(cfg.AppEnv)
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Setup(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	authService := services.NewAuthService(cfg.JWTSecret, cfg.JWTExpirationHours)
	userService := services.NewUserService(authService)
	folderService := services.NewFolderService()
	noteService := services.NewNoteService()

	webSocketService := services.NewWebSocketService(db, noteService, cfg.AutosaveDelay(), logger)
	webSocketService.Start()
	defer webSocketService.Stop()

	// Without NATS the event handler delivers to the local hub directly.
	var publisher broker.Publisher
	if cfg.NATSURL != "" {
		conn, err := broker.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Warn("NATS unavailable, delivering events locally", zap.Error(err))
		} else {
			defer conn.Drain()
			publisher = broker.NewProducer(conn, logger)

			consumer, err := broker.InitConsumer(conn, []string{broker.AllSubject}, logger)
			if err != nil {
				logger.Fatal("Failed to subscribe to events", zap.Error(err))
			}
			defer consumer.Close()
			webSocketService.Consume(consumer.GetMessageChannel())
		}
	}

	eventHandlerService := services.NewEventHandlerService(db, publisher, webSocketService, cfg.EventPollDuration(), logger)
	eventHandlerService.Start()
	defer eventHandlerService.Stop()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
			rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
		}
		cancel()
	}

	router := routes.SetupRouter(routes.Dependencies{
		DB:               db,
		AuthService:      authService,
		UserService:      userService,
		FolderService:    folderService,
		NoteService:      noteService,
		WebSocketService: webSocketService,
		Redis:            rdb,
		RateLimit:        cfg.RateLimitPerSecond,
		AllowedOrigins:   cfg.AllowedOrigins,
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("API server is running", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
