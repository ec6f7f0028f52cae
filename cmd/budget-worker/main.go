package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker, os.Getenv("LOG_LEVEL"), slog.LevelInfo)
	logger.Info("Starting budget-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	// The store is only read, to check alerts against the current ledger
	backend := cli.InitStore(applog.NewContext(context.Background(), logger), logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	parent, stop := context.WithCancel(applog.NewContext(context.Background(), logger))
	defer stop()

	ctx, done := cli.GracefulShutdown(parent, logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", applog.FieldError, err)
		}
		if backend.Cleanup != nil {
			if err := backend.Cleanup(); err != nil {
				logger.Warn("Failed to close store", applog.FieldError, err)
			}
		}
	})

	alertWorker := worker.NewAlertWorker(backend.Store, logger)

	// Report users already over budget, in case alerts were missed while down
	if _, err := alertWorker.StartupBudgetCheck(ctx); err != nil {
		logger.Error("Failed startup budget check", applog.FieldError, err)
		// Don't exit - continue with normal operation
	}

	consumeErr := make(chan error, 1)
	go func() {
		err := amqpClient.ConsumeBudgetAlerts(ctx, alertWorker.HandleBudgetAlert)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
			consumeErr <- err
		}
		stop()
	}()

	cli.WaitForShutdown(ctx, done)

	select {
	case err := <-consumeErr:
		if errors.Is(err, core.ErrStoreUnreadable) {
			logger.Error("Budget data unreadable, stopping worker",
				applog.FieldError, err,
				applog.FieldPath, cfg.StorePath())
		}
		os.Exit(1)
	default:
	}
	logger.Info("Worker stopped")
}
