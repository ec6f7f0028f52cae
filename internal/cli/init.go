// Package cli provides common CLI initialization utilities.
// This package consolidates the initialization shared by cmd/budget and
// cmd/budget-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/config"
	applog "budget/internal/log"
	"budget/internal/services"
)

// SetupLogger initializes structured logging on stderr for component.
// An empty or unknown level falls back to fallback; Validate reports
// unknown levels separately.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(component, level string, fallback slog.Level) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	if err != nil {
		lvl = fallback
	}
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: component,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitStore creates the store selected by DATA_BACKEND.
// Returns the backend or exits the process on failure.
func InitStore(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store",
			applog.FieldError, err,
			applog.FieldBackend, cfg.DataBackend,
			applog.FieldPath, cfg.StorePath())
		os.Exit(1)
	}
	return result
}

// InitNotifier connects the budget alert publisher when AMQP_URL is set.
// The interactive tool works without a broker, so a connection failure is
// logged and yields a nil notifier. The returned cleanup is never nil.
func InitNotifier(logger *applog.Logger, cfg *config.Config) (services.Notifier, func()) {
	logger = logger.WithComponent(applog.ComponentAMQP)
	if cfg.AMQPURL == "" {
		logger.Debug("Budget alerts disabled - no AMQP_URL provided")
		return nil, func() {}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Budget alerts disabled - AMQP unavailable",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeNetwork)
		return nil, func() {}
	}

	logger.Info("Budget alerts enabled",
		applog.FieldExchange, cfg.AMQPExchange,
		applog.FieldQueue, cfg.AMQPQueue)
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", applog.FieldError, err)
		}
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals or when
// parent is done, and a channel that signals when cleanup has finished.
func GracefulShutdown(parent context.Context, logger *applog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		cancel()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
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
