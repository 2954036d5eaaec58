package storage

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationURL turns a backend DSN into the URL golang-migrate expects.
func MigrationURL(driver, dsn string) string {
	if driver == DriverPostgres || strings.Contains(dsn, "://") {
		return dsn
	}
	return "sqlite://" + dsn
}

// RunMigrations applies all pending migrations for driver.
func RunMigrations(driver, dsn string) error {
	if driver == "" {
		driver = DriverSQLite
	}
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("loading %s migrations: %w", driver, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrationURL(driver, dsn))
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
