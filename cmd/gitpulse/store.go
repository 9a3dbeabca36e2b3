package main

import (
	"context"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/storage"
)

// openStore opens the configured statistics store
func openStore(ctx context.Context) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.ConfigError("POSTGRES_DSN is required when storage.type is postgres")
		}
		store, err := storage.NewPostgresStore(ctx, cfg.Storage.PostgresDSN, cfg.Storage.PostgresDriver, logger.Logger)
		if err != nil {
			return nil, errors.DatabaseError(err, "open postgres store")
		}
		return store, nil
	case "sqlite", "":
		store, err := storage.NewSQLiteStore(cfg.Storage.LocalPath, logger.Logger)
		if err != nil {
			return nil, errors.DatabaseError(err, "open sqlite store")
		}
		return store, nil
	default:
		return nil, errors.ConfigErrorf("unknown storage type %q", cfg.Storage.Type)
	}
}
