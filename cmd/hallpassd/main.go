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

	"hallpass-backend/config"
	"hallpass-backend/internal/api"
	"hallpass-backend/internal/clock"
	"hallpass-backend/internal/db"
	"hallpass-backend/internal/escalation"
	"hallpass-backend/internal/model"
	"hallpass-backend/internal/notification"
	"hallpass-backend/internal/pass"
	"hallpass-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "hallpass-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			logger.Fatalf("VAPID keys must be configured when push is enabled.")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	clk := clock.System()
	passService := pass.NewService(appStore, clk)

	// Notification worker pool delivers escalation pushes in the background.
	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
	workerPool.Start(ctx)

	defaults := model.EscalationThresholds{
		Warning: cfg.Monitor.DefaultWarningMinutes,
		Alert:   cfg.Monitor.DefaultAlertMinutes,
	}
	resolver := escalation.NewResolver(appStore, defaults)
	monitor := escalation.NewMonitor(appStore, resolver, workerPool, clk, cfg.Monitor.Interval)

	var stopMonitor func()
	if cfg.Monitor.Enabled {
		stopMonitor = monitor.Start(ctx)
	} else {
		logger.Println("Escalation monitor is disabled. Not starting.")
		stopMonitor = func() {}
	}

	// Initialize router
	router := api.NewRouter(appStore, passService, monitor, webpushOptions, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	stopMonitor()

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
