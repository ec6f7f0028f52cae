package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"budget/internal/cli"
	"budget/internal/console"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file for local development
	cli.LoadEnvFile()

	// Logs go to stderr; at the default warn level only real failures show up
	// next to the menu
	logger := cli.SetupLogger(applog.ComponentCLI, os.Getenv("LOG_LEVEL"), slog.LevelWarn)

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := applog.NewContext(context.Background(), logger)

	backend := cli.InitStore(ctx, logger, cfg)
	if backend.Cleanup != nil {
		defer func() {
			if err := backend.Cleanup(); err != nil {
				logger.Warn("Failed to close store", applog.FieldError, err)
			}
		}()
	}

	notifier, closeNotifier := cli.InitNotifier(logger, cfg)
	defer closeNotifier()

	ledger := services.NewLedgerService(backend.Store, notifier, logger)

	prompter := console.NewPrompter()
	defer prompter.Close()

	err := console.New(ledger, prompter, os.Stdout, logger).Run(ctx)
	if err == nil {
		return 0
	}

	if errors.Is(err, core.ErrStoreUnreadable) {
		fmt.Fprintf(os.Stderr, "Cannot read budget data from %s: %v\n", cfg.StorePath(), err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	logger.Error("Session ended with error",
		applog.FieldError, err,
		applog.FieldBackend, cfg.DataBackend,
		applog.FieldPath, cfg.StorePath())
	return 1
}
