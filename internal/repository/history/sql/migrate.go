package sql

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/sharetube/watchtogether/internal/repository/history/sql/migrations"
	"github.com/sharetube/watchtogether/pkg/dbclient"
)

// Dialect maps a database driver name to the goose dialect and the
// migrations directory written for it.
func Dialect(driver string) (goose.Dialect, string, error) {
	switch driver {
	case dbclient.DriverPostgres:
		return goose.DialectPostgres, "postgres", nil
	case dbclient.DriverSQLite:
		return goose.DialectSQLite3, "sqlite", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// MigrationsFS returns the embedded migrations for the driver.
func MigrationsFS(driver string) (fs.FS, error) {
	_, dir, err := Dialect(driver)
	if err != nil {
		return nil, err
	}

	return fs.Sub(migrations.FS, dir)
}

func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	dialect, _, err := Dialect(driver)
	if err != nil {
		return err
	}

	fsys, err := MigrationsFS(driver)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
