package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"activation/internal/config"
	"activation/internal/database"
	"activation/internal/metrics"
	"activation/internal/server"
	"activation/internal/services"
	"activation/internal/storage"
	"activation/internal/util"
)

const (
	shutdownTimeout      = 30 * time.Second
	readTimeout          = 15 * time.Second
	writeTimeout         = 15 * time.Second
	idleTimeout          = 60 * time.Second
	rateLimitWindow      = time.Minute
	rateLimitCleanup     = 5 * time.Minute
	dbStatsRefreshPeriod = 30 * time.Second
)

func main() {
	log.SetPrefix("[API] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: debug=%v, port=%s, host=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host)

	log.Println("Initializing database connection...")
	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Println("Closing database connections...")
		if sqlDB, err := database.GetDB().DB(); err == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				log.Printf("Error closing database: %v", closeErr)
			}
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	log.Println("Initializing object storage...")
	store, err := storage.NewS3Storage(ctx, &cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	log.Println("Initializing services...")
	db := database.GetDB()
	smsSvc := services.NewSMSService(&cfg.SMS)
	emailSvc := services.NewEmailService(&cfg.Email)
	urlTTL := time.Duration(cfg.Storage.URLTTLSeconds) * time.Second
	tokenExpiry := time.Duration(cfg.Auth.TokenExpiryMinutes) * time.Minute

	svc := &server.Services{
		Health:     services.NewHealthService(cfg.App.Name, cfg.App.Version, database.HealthCheck),
		Auth:       services.NewAuthService(db, cfg.Intake.APIKey, tokenExpiry),
		Leads:      services.NewLeadService(db, cfg.Intake.PlayCount),
		Devices:    services.NewDeviceService(db),
		Moderation: services.NewModerationService(db, smsSvc, store, &cfg.SMS, urlTTL),
		Users:      services.NewUserService(db, emailSvc),
		Stats:      services.NewStatsService(db, cfg.Intake.PlayCount),
		Utility:    services.NewUtilityService(&cfg.Database),
	}

	if cfg.Intake.APIKey == "" {
		log.Println("API_KEY is not set; recording station endpoints will reject all requests")
	}
	if cfg.SMS.Enabled && cfg.SMS.BaseURL == "" {
		log.Println("SMS_BASE_URL is not set; approval messages cannot be sent")
	}

	limiter := util.NewRateLimiter(cfg.Intake.RateLimitPerMinute, rateLimitWindow)
	go runPeriodically(ctx, rateLimitCleanup, limiter.Cleanup)
	go runPeriodically(ctx, dbStatsRefreshPeriod, refreshDBStats)

	log.Println("Mounting HTTP handlers...")
	api := server.New(svc, limiter)

	// Route /metrics to Prometheus and everything else to the API
	rootHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			promhttp.Handler().ServeHTTP(w, r)
			return
		}
		api.ServeHTTP(w, r)
	})

	// Middleware chain: Security -> CORS -> Logging -> Prometheus -> Handler
	handler := setupSecurityHeaders(setupCORS(requestLogging(metrics.PrometheusMiddleware(rootHandler)), cfg), cfg)

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server failed to start: %v", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
		if err == context.DeadlineExceeded {
			log.Println("Shutdown timeout exceeded, forcing close...")
			httpServer.Close()
		}
	}

	log.Println("Server shutdown complete")
}

func runPeriodically(ctx context.Context, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func refreshDBStats() {
	stats, err := database.GetStats()
	if err != nil {
		return
	}
	metrics.UpdateDBConnections(stats.InUse, stats.Idle)
}

// validateConfig validates critical configuration values
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.SecretKey == "" || cfg.Auth.SecretKey == "your-secret-key-change-in-production" {
		return fmt.Errorf("SECRET_KEY must be set and changed from default value")
	}
	if len(cfg.Auth.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters for security")
	}
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	return nil
}
