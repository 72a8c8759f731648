package symbol

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// openTestDB creates a database holding just the symbol tables.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "symbols.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, k := range Kinds() {
		_, err := db.Exec(`CREATE TABLE ` + k.Table() + ` (id INTEGER PRIMARY KEY, value TEXT NOT NULL UNIQUE)`)
		require.NoError(t, err)
	}
	return db
}

// internCommitted interns values in one committed transaction.
func internCommitted(t *testing.T, db *sql.DB, c *Cache, k Kind, values ...string) []int64 {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	txn := c.Begin(tx)
	ids := make([]int64, len(values))
	for i, v := range values {
		ids[i], err = txn.Intern(ctx, k, v)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
	txn.Apply()
	return ids
}
