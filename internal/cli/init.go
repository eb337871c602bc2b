// Package cli provides common initialization shared by cmd/munimji and
// cmd/munimji-sync.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"munimji/internal/config"
	applog "munimji/internal/log"
	"munimji/internal/session"
	"munimji/internal/storage"
)

// SetupLogger initializes structured logging. Verbose switches on debug
// level for troubleshooting sync and gateway traffic.
func SetupLogger(verbose bool) *applog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return applog.New(level)
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenSession opens the session store at the configured path, falling
// back to the per-user default location.
func OpenSession(logger *applog.Logger, path string) *session.FileStore {
	if path == "" {
		var err error
		path, err = session.DefaultPath()
		if err != nil {
			logger.Error("Failed to resolve session path", applog.FieldError, err)
			os.Exit(1)
		}
	}
	return session.NewFileStore(path)
}

// InitSnapshot opens the offline snapshot database and runs migrations.
// Returns the repository or exits the process on failure.
func InitSnapshot(logger *applog.Logger, dbPath string) *storage.SnapshotRepository {
	snapshot, err := storage.NewSnapshotRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot database", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return snapshot
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup()
		}

		cancel()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-time.After(2 * time.Second):
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
