package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dealdesk/internal/config"
	"dealdesk/internal/services"
	"dealdesk/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting snapshot-worker")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// SQLite repository backing the snapshot computation
	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	snapshotService := services.NewSnapshotService(repo, repo, repo, repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Compute once at startup so a fresh deployment has a snapshot for the
	// current period right away.
	if snap, err := snapshotService.ComputeAndStore(ctx); err != nil {
		logger.Error("Initial snapshot failed", "error", err)
	} else {
		logger.Info("Snapshot stored", "period", snap.Period)
	}

	ticker := time.NewTicker(cfg.SnapshotInterval)
	defer ticker.Stop()

	logger.Info("Snapshot worker running", "interval", cfg.SnapshotInterval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
			return
		case <-ticker.C:
			if snap, err := snapshotService.ComputeAndStore(ctx); err != nil {
				logger.Error("Snapshot computation failed", "error", err)
			} else {
				logger.Info("Snapshot stored", "period", snap.Period)
			}
		}
	}
}
