package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatapp/internal/auth"
	"chatapp/internal/config"
	"chatapp/internal/db"
	"chatapp/internal/handlers"
	"chatapp/internal/middleware"
	"chatapp/internal/observability"
	"chatapp/internal/rabbitmq"
	"chatapp/internal/repositories"
	"chatapp/internal/telemetry"
	"chatapp/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, "chatapp", cfg.OTelEndpoint)
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

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.chat", "chatapp", cfg.Environment)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	presence := ws.NewPresenceTracker()
	typing := ws.NewTypingCoordinator(hub, cfg.TypingTimeout)
	router := ws.NewMessageRouter(messageRepo, hub)
	receipts := ws.NewReadReceipts(messageRepo, hub)

	chatWS := ws.NewChatWebSocketHandler(hub, presence, typing, router, receipts, verifier)
	chatHandler := handlers.NewChatHandler(messageRepo, presence, cfg.HistoryLimit)

	engine := gin.Default()
	engine.Use(gin.Recovery())
	engine.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	engine.GET("/api/messages", authMiddleware, chatHandler.GetMessages)
	engine.GET("/api/users/online", authMiddleware, chatHandler.GetOnlineUsers)
	engine.GET("/ws", chatWS.Handle)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(engine, auditEmitter, cfg.DebugRoutes)

	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
