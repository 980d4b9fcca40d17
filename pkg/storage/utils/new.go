// Package storageutils builds the configured storage.Driver.
package storageutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/thoughtwire/pkg/storage"
	"github.com/papercomputeco/thoughtwire/pkg/storage/inmemory"
	"github.com/papercomputeco/thoughtwire/pkg/storage/postgres"
	"github.com/papercomputeco/thoughtwire/pkg/storage/sqlite"
)

type NewDriverOpts struct {
	// PostgresDSN selects PostgreSQL storage. It wins over SQLitePath.
	PostgresDSN string

	// SQLitePath selects SQLite storage.
	SQLitePath string

	Logger *slog.Logger
}

// NewDriver opens the store described by o, falling back to in-memory
// storage when no database is configured.
func NewDriver(ctx context.Context, o *NewDriverOpts) (storage.Driver, error) {
	switch {
	case o.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, o.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storer: %w", err)
		}
		o.Logger.Info("using PostgreSQL storage")
		return driver, nil

	case o.SQLitePath != "":
		driver, err := sqlite.NewDriver(ctx, o.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		o.Logger.Info("using SQLite storage", "path", o.SQLitePath)
		return driver, nil

	default:
		o.Logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	}
}
