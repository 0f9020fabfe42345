package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caffeinepub/rk-solutions/internal/adapter/api"
	"github.com/caffeinepub/rk-solutions/internal/adapter/metrics"
	"github.com/caffeinepub/rk-solutions/internal/adapter/notifier"
	"github.com/caffeinepub/rk-solutions/internal/adapter/repository/postgres"
	"github.com/caffeinepub/rk-solutions/internal/domain"
	"github.com/caffeinepub/rk-solutions/internal/pkg/config"
	"github.com/caffeinepub/rk-solutions/internal/pkg/logger"
	"github.com/caffeinepub/rk-solutions/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewLedgerMetrics()

	// --- Start Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.AdminServerAddr,
		Handler: api.NewAdminRouter(),
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}

	// --- Stock Alert Notifier ---
	// Redis is optional; without it alerts fall back to the log.
	var alertNotifier domain.Notifier = notifier.NewStdoutNotifier(logger)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, alerts go to the log", "error", err)
		} else {
			alertNotifier = notifier.NewRedisNotifier(redisClient, cfg.AlertStream, logger)
		}
	}

	// --- Repositories ---
	shopRepo := postgres.NewShopRepository(db, logger)
	profileRepo := postgres.NewProfileRepository(db, logger)
	productRepo := postgres.NewProductRepository(db, logger)
	movementRepo := postgres.NewMovementRepository(db, logger)

	// --- Use Cases ---
	guard := usecase.NewGuard(profileRepo, shopRepo, logger, m)
	registry := usecase.NewRegistry(shopRepo, profileRepo, guard, logger)
	ledger := usecase.NewLedger(productRepo, movementRepo, guard, logger, m)
	analytics := usecase.NewAnalytics(productRepo, guard, logger)

	// --- Stock Alert Scanner ---
	scanner := usecase.NewAlertScanner(shopRepo, productRepo, alertNotifier, logger, m)
	go scanner.Run(ctx, cfg.AlertScanInterval)

	// --- API Server ---
	apiServer := &http.Server{
		Addr:         cfg.APIServerAddr,
		Handler:      api.NewRouter(cfg, logger, guard, registry, ledger, analytics),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting inventory API server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("API server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
