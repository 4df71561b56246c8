package presets

import (
	"context"
	"fmt"
	"io"

	"phylotree/internal/blob"
	"phylotree/internal/infra/persistence/postgres"
	"phylotree/internal/infra/persistence/sqlite"
	"phylotree/pkg/preset"
)

// Driver names a preset backend.
type Driver string

const (
	DriverBlob     Driver = "blob"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config selects the preset backend.
type Config struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
}

// Store is a preset.Store that owns resources.
type Store interface {
	preset.Store
	io.Closer
}

// Open returns the configured backend. objects is required for the blob
// driver, which is also the default.
func Open(ctx context.Context, cfg Config, objects blob.Store) (Store, error) {
	switch cfg.Driver {
	case "", DriverBlob:
		if objects == nil {
			return nil, fmt.Errorf("preset driver %s requires a blob store", DriverBlob)
		}
		return NewBlobStore(objects), nil
	case DriverSQLite:
		store, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown preset driver %s", cfg.Driver)
	}
}
