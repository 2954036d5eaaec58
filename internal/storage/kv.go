package storage

import (
	"context"
	"fmt"
)

// Drivers accepted by Open and RunMigrations.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// KV is a flat key-value backend. Each key holds one serialized document
// that is always read and written whole.
type KV interface {
	// Get returns nil with no error when the key has never been set.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
	Close() error
}

// Open connects to the backend for driver. dsn is a file path for sqlite
// and a connection URL for postgres.
func Open(ctx context.Context, driver, dsn string) (KV, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
