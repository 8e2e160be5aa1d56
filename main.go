package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/auth"
	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/dispatch"
	"messaging-service/internal/handlers"
	"messaging-service/internal/inbox"
	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
	"messaging-service/internal/registry"
	"messaging-service/internal/repositories"
	"messaging-service/internal/sharedstate"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/throttle"
	"messaging-service/internal/validation"
	"messaging-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, "messaging-service", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := observability.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	observability.SetPublisher(publisher)
	defer publisher.Close()

	var throttleStore sharedstate.Store
	if cfg.RedisAddr != "" {
		redisStore, err := sharedstate.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		throttleStore = redisStore
		log.Printf("throttle state externalized to redis at %s", cfg.RedisAddr)
	}

	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)

	reg := registry.New(cfg.MaxClientsPerUser)
	ctrl := throttle.NewController(throttle.Intervals{
		Message:     cfg.MessageRate,
		Typing:      cfg.TypingRate,
		ReadReceipt: cfg.ReadReceiptRate,
	}, throttleStore)
	go ctrl.RunCleanup(ctx, time.Minute, 5*time.Minute)

	dispatcher := dispatch.New(conversationRepo, messageRepo, notificationRepo, reg)
	inboxService := inbox.NewService(notificationRepo)
	authenticator := auth.New(cfg.JWTSecret)
	validator := validation.New()
	audit := telemetry.NewAuditEmitter("audit.messaging", "messaging-service", cfg.Environment)

	conversationHandler := handlers.NewConversationHandler(conversationRepo, messageRepo, validator, audit)
	messageHandler := handlers.NewMessageHandler(dispatcher, messageRepo, validator, audit)
	inboxHandler := handlers.NewInboxHandler(inboxService, validator)
	wsHandler := ws.NewHandler(reg, ctrl, dispatcher, authenticator, cfg.IdleTimeout)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("messaging-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authenticator)

	router.POST("/conversations", authMiddleware, conversationHandler.CreateConversation)
	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, conversationHandler.ListMessages)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, messageHandler.PostMessage)
	router.PATCH("/messages/:message_id", authMiddleware, messageHandler.EditMessage)
	router.GET("/messages/:message_id/edits", authMiddleware, messageHandler.EditHistory)
	router.POST("/messages/:message_id/reactions", authMiddleware, messageHandler.PostReaction)
	router.DELETE("/messages/:message_id/all", authMiddleware, messageHandler.DeleteMessageForAll)
	router.GET("/inbox", authMiddleware, inboxHandler.GetInbox)
	router.POST("/inbox/:notification_id/read", authMiddleware, inboxHandler.MarkRead)

	router.GET("/ws", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, reg, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
