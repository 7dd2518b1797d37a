// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hongminglow/expense-api/internal/config"
	"github.com/hongminglow/expense-api/internal/storage"
	"github.com/hongminglow/expense-api/internal/storage/memory"
	"github.com/hongminglow/expense-api/internal/storage/postgres"
	"github.com/hongminglow/expense-api/internal/storage/sqlite"
)

// Open connects to and migrates the configured backend. The caller owns Close.
func Open(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres backend: %w", err)
		}
		logger.Info().Str("backend", cfg.Backend).Msg("initialized storage backend")
		return store, nil

	case config.BackendSQLite:
		store, err := sqlite.NewStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite backend: %w", err)
		}
		logger.Info().Str("backend", cfg.Backend).Str("db_path", cfg.SQLiteDBPath).Msg("initialized storage backend")
		return store, nil

	case config.BackendMemory:
		logger.Warn().Str("backend", cfg.Backend).Msg("data is kept in memory and lost on restart")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %q", cfg.Backend)
	}
}
