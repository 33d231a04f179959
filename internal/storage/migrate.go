package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func (db *DB) migrate(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+string(db.dialect))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	var (
		driver database.Driver
		owned  *sql.DB
	)
	switch db.dialect {
	case DialectSQLite:
		// Migrate through the shared handle: a separate connection would see a
		// different database when dsn is ":memory:".
		driver, err = migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("create sqlite driver: %w", err)
		}
	case DialectPostgres:
		// Migrate over a separate connection so closing the migrator leaves db.conn open.
		owned, err = sql.Open("pgx", dsn)
		if err != nil {
			return fmt.Errorf("open migration database: %w", err)
		}
		driver, err = migratepgx.WithInstance(owned, &migratepgx.Config{})
		if err != nil {
			owned.Close()
			return fmt.Errorf("create pgx driver: %w", err)
		}
	}

	m, err := migrate.NewWithInstance("iofs", src, string(db.dialect), driver)
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if owned != nil {
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
