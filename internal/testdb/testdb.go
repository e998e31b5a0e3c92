// Package testdb opens throwaway bun databases for tests.
package testdb

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/rise-and-shine/voiceout/pg"
)

// New returns a bun.DB over a private in-memory SQLite database.
// The database is closed when the test ends.
func New(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// every connection to :memory: is a new database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	pg.ApplyHooks(db, false)

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTables creates tables for the given models.
func CreateTables(t *testing.T, db *bun.DB, models ...any) {
	t.Helper()

	for _, m := range models {
		_, err := db.NewCreateTable().Model(m).IfNotExists().Exec(context.Background())
		require.NoError(t, err)
	}
}
