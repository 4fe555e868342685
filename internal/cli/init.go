// Package cli provides common CLI initialization utilities shared by
// cmd/fintrack and cmd/ledger-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap loads and validates the configuration and installs the
// process-wide logger for component.
func Bootstrap(component string) (*config.Config, *applog.Logger, error) {
	LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := applog.New(cfg.LoggerConfig(component))
	applog.SetDefault(logger)
	return cfg, logger, nil
}

// MustBootstrap is Bootstrap for main: it exits the process on failure.
func MustBootstrap(component string) (*config.Config, *applog.Logger) {
	cfg, logger, err := Bootstrap(component)
	if err != nil {
		applog.Component(component).Error("Startup failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitSQLite opens the ledger store, running migrations.
func InitSQLite(dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository at %s: %w", dbPath, err)
	}
	return repo, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
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
