package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"course-enrollment-backend/config"
	"course-enrollment-backend/internal/api"
	"course-enrollment-backend/internal/auth"
	"course-enrollment-backend/internal/db"
	"course-enrollment-backend/internal/enroll"
	"course-enrollment-backend/internal/notification"
	"course-enrollment-backend/internal/store"
	"course-enrollment-backend/internal/sweeper"
)

func main() {
	logger := log.New(os.Stdout, "enrolld ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	policy, err := enroll.NewPolicy(cfg.Enrollment)
	if err != nil {
		logger.Fatalf("invalid enrollment policy: %v", err)
	}
	engine := enroll.NewEngine(policy)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, engine)
	logger.Println("data store initialized")

	tokens := auth.NewTokenService(cfg.Auth)

	var workerPool *notification.WorkerPool
	if cfg.Push.Enabled {
		webpushOptions := webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
		workerPool.Start(ctx)
		logger.Printf("notification worker pool started with %d workers", cfg.WorkerPool.Size)
	}

	// Background expiry of unconfirmed enrollments (no-op unless a TTL
	// is configured).
	sweepSvc := sweeper.NewService(cfg.Enrollment, appStore, workerPool)
	go sweepSvc.Run(ctx)

	router := api.NewRouter(appStore, tokens, workerPool, cfg)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
