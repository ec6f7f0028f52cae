package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/store/jsonfile"
	"budget/internal/store/memory"
	"budget/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case JSONBackend:
		return f.createJSONBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createJSONBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var opts []jsonfile.Option
	if config.FileLock {
		opts = append(opts, jsonfile.WithFileLock(config.LockTimeout))
	}
	s := jsonfile.New(config.DataFile, opts...)

	f.logger.InfoContext(ctx, "Initialized JSON file backend",
		"path", config.DataFile,
		"file_lock", config.FileLock)

	return &BackendResult{Store: s}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var opts []sqlite.Option
	if config.FileLock {
		opts = append(opts, sqlite.WithFileLock(config.LockTimeout))
	}

	s, err := sqlite.New(config.SQLiteDBPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"file_lock", config.FileLock)

	return &BackendResult{
		Store:   s,
		Cleanup: s.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	f.logger.InfoContext(ctx, "Initialized memory backend")

	return &BackendResult{Store: memory.New()}, nil
}
