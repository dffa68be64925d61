// Package cli holds the start-up and shutdown steps shared by cmd/hisob and
// cmd/hisob-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hisob/internal/config"
	"hisob/internal/log"
	"hisob/internal/storage"
)

// SetupLogger installs a text handler at the LOG_LEVEL level as the process
// default and returns it wrapped for component tagging.
func SetupLogger() *log.Logger {
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := log.New(log.Config{Level: level, Output: os.Stdout})
	slog.SetDefault(logger.Logger)
	if err != nil {
		logger.Warn("Falling back to info logging", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads .env for local runs. A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and runs validate on it, exiting
// the process when it fails.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens (and migrates) the SQLite ledger or exits the process.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Shutdown runs cleanup with a deadline and logs when it runs late.
func Shutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		cleanup(ctx)
	}()

	select {
	case <-done:
		logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	case <-ctx.Done():
		logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
	}
}
