package main

// @title           Purretys Pet Service API
// @version         1.0
// @description     Collaborative virtual pet care backend with realtime updates
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"pet-service/internal/api/routes"
	"pet-service/internal/config"
	"pet-service/internal/database"
	"pet-service/internal/events"
	"pet-service/internal/services"
	"pet-service/internal/websocket"
)

func main() {
	// .env is optional; viper falls back to real environment variables.
	_ = godotenv.Load()
	cfg := config.Load()

	slog.Info("Starting pet service")

	redisClient, err := database.InitRedis(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db := mustConnectPostgres(cfg)

	storage, err := database.NewMinIOClient(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		slog.Warn("MinIO unavailable, avatar uploads disabled", "error", err)
		storage = nil
	}

	producer, err := events.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
	if err != nil {
		slog.Warn("Kafka unavailable, activity events disabled", "error", err)
		producer = nil
	} else {
		defer producer.Close()
	}

	presence := services.NewPresenceService(redisClient)

	hub := websocket.NewHub(websocket.Config{
		SweepInterval: cfg.HubSweepInterval,
		StaleTimeout:  cfg.HubStaleTimeout,
	}, presence)
	go hub.Run()

	router := routes.NewRouter(hub, db, redisClient, storage, producer, cfg.JWTSecret, cfg.JWTExpire)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}

func mustConnectPostgres(cfg *config.Config) *gorm.DB {
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresConnectionWithURL(cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		return db
	}
	db, err := database.NewPostgresConnection(
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	return db
}
