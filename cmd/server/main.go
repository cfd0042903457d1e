package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kama-line/service-reservation/internal/application"
	"github.com/kama-line/service-reservation/internal/auth"
	"github.com/kama-line/service-reservation/internal/config"
	"github.com/kama-line/service-reservation/internal/conversation"
	"github.com/kama-line/service-reservation/internal/domain/catalog"
	"github.com/kama-line/service-reservation/internal/events"
	"github.com/kama-line/service-reservation/internal/handler"
	"github.com/kama-line/service-reservation/internal/logger"
	"github.com/kama-line/service-reservation/internal/middleware"
	"github.com/kama-line/service-reservation/internal/repository"
	"github.com/kama-line/service-reservation/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv, "service-reservation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-reservation",
		zap.String("port", cfg.Port),
		zap.String("session_backend", cfg.SessionBackend),
	)

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DBConfig.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Dev auto-migrate; production schemas are managed outside the service.
	if !cfg.IsProduction() {
		if err := db.AutoMigrate(&repository.ReservationModel{}, &repository.UserModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	}

	// Initialize JWT manager for the admin HTTP API
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Initialize Kafka producer
	kafkaProducer := events.NewProducer(cfg.KafkaBrokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	reservationRepo := repository.NewGormReservationRepository(db)
	userDirectory := repository.NewGormUserDirectory(db)

	// Conversation flow configuration
	flow := catalog.Flow{
		CollapseCityStep: cfg.CollapseCityStep,
		RequireDate:      cfg.RequireDate,
	}

	// Initialize application service
	reservationService := application.NewReservationService(
		reservationRepo,
		userDirectory,
		flow,
		kafkaProducer,
		log,
	)

	// Initialize session store
	var sessionStore conversation.Store
	switch cfg.SessionBackend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = redisClient.Close() }()
		sessionStore = session.NewRedisStore(redisClient, cfg.SessionTTL)
	default:
		sessionStore = session.NewMemoryStore()
	}

	// Initialize conversation engine
	machine := conversation.NewMachine(catalog.Default(), catalog.DefaultNetwork(), flow)
	engine := conversation.NewEngine(machine, sessionStore, reservationService, log)

	// Initialize HTTP handlers
	webhookHandler := handler.NewWebhookHandler(engine, log)
	adminHandler := handler.NewAdminHandler(reservationService, log)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.RequestID())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "service-reservation"})
	})

	// Register routes
	webhookHandler.RegisterRoutes(&router.RouterGroup)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-reservation...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-reservation stopped")
}
