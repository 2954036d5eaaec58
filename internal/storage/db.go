package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the PostgreSQL backend, for installations that keep their data on a
// self-hosted server instead of the device.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := db.Pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying key %s: %w", key, err)
	}
	return []byte(value), nil
}

func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("clearing kv: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}
