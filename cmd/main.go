package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoplaint/backend/internal/api/handler"
	"ecoplaint/backend/internal/auth"
	"ecoplaint/backend/internal/complaint"
	"ecoplaint/backend/internal/config"
	"ecoplaint/backend/internal/hub"
	"ecoplaint/backend/internal/localization"
	"ecoplaint/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client) {
	// TranslateError maps driver errors to gorm.ErrDuplicatedKey and friends.
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Database and Redis connections established.")
	return db, rdb
}

func main() {
	log.Println("Starting complaint service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Dependencies
	db, rdb := setupDependencies(ctx, cfg)
	s := storage.NewStorageService(db, rdb)
	if err := s.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	messages, err := localization.New()
	if err != nil {
		log.Fatalf("Failed to load messages: %v", err)
	}

	keys := auth.NewKeys(cfg.JWTSecret, cfg.JWTPreviousSecrets...)
	complaints := complaint.NewService(s, s)
	complaints.TxTimeout = cfg.TxTimeout

	// 2. Real-time hub
	notifications := hub.NewManagerService(s)
	go notifications.Run(ctx)

	// 3. Gin routing
	h := handler.NewHandler(s, complaints, auth.NewIssuer(keys, cfg.TokenTTL), auth.NewVerifier(keys), notifications, messages)
	h.MaxUploadBytes = cfg.MaxUploadBytes
	h.AllowedOrigins = cfg.AllowedOrigins
	r := handler.NewRouter(h)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("INFO: Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Graceful shutdown failed: %v", err)
	}
	if err := rdb.Close(); err != nil {
		log.Printf("ERROR: Closing Redis: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
