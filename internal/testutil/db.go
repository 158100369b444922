// Package testutil provides common helpers for store and HTTP tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mechanic-shop-api/internal/config"
	"github.com/iliyamo/mechanic-shop-api/internal/database"
)

// NewTestDB opens a private in-memory SQLite database with the schema
// applied.  It is closed when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()))
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, config.DriverSQLite), "migrate")
	return db
}

// TestConfig is a minimal valid configuration for building the app.
func TestConfig() config.Config {
	return config.Config{
		Env:        "test",
		LogLevel:   "off",
		DBDriver:   config.DriverSQLite,
		JWTSecret:  "test-secret",
		BcryptCost: 4,
	}
}
