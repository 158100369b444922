package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/iliyamo/mechanic-shop-api/internal/config"
)

//go:embed schema/*/*.sql
var schemaFS embed.FS

// Migrate applies every pending migration for driver.  An up-to-date
// database is not an error.
//
// The migrator is never closed: both drivers would close db with it.  The
// MySQL driver runs on a dedicated connection that is released here.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var dir string
	switch driver {
	case config.DriverMySQL:
		dir = "schema/mysql"
	case config.DriverSQLite:
		dir = "schema/sqlite"
	default:
		return fmt.Errorf("no schema for driver %q", driver)
	}

	src, err := iofs.New(schemaFS, dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	defer src.Close()

	var target migratedb.Driver
	switch driver {
	case config.DriverMySQL:
		conn, err := db.Conn(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		target, err = migratemysql.WithConnection(ctx, conn, &migratemysql.Config{})
		if err != nil {
			return fmt.Errorf("migrate driver: %w", err)
		}
	default:
		target, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("migrate driver: %w", err)
		}
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply %s: %w", dir, err)
	}
	return nil
}
