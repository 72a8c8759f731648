package symbol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxnStagesUntilApply(t *testing.T) {
	db := openTestDB(t)
	c := NewCache()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	txn := c.Begin(tx)
	id, err := txn.Intern(ctx, Actor, "app://editor.desktop")
	require.NoError(t, err)

	staged, ok := txn.Lookup(Actor, "app://editor.desktop")
	assert.True(t, ok, "staged value is visible inside the transaction")
	assert.Equal(t, id, staged)

	_, err = c.Lookup(Actor, "app://editor.desktop")
	assert.ErrorIs(t, err, ErrNotFound, "staged value is not visible to the shared cache")

	require.NoError(t, tx.Commit())
	txn.Apply()

	got, err := c.Lookup(Actor, "app://editor.desktop")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTxnRollbackDiscards(t *testing.T) {
	db := openTestDB(t)
	c := NewCache()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	txn := c.Begin(tx)
	_, err = txn.Intern(ctx, URI, "doc://tmp")
	require.NoError(t, err)
	assert.Equal(t, 1, txn.Staged())
	require.NoError(t, tx.Rollback())

	_, err = c.Lookup(URI, "doc://tmp")
	assert.ErrorIs(t, err, ErrNotFound)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM uri`).Scan(&n))
	assert.Zero(t, n, "rollback leaves the table untouched")
}

func TestTxnInternOptional(t *testing.T) {
	db := openTestDB(t)
	c := NewCache()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	txn := c.Begin(tx)

	null, err := txn.InternOptional(ctx, Mimetype, "")
	require.NoError(t, err)
	assert.False(t, null.Valid)

	set, err := txn.InternOptional(ctx, Mimetype, "text/plain")
	require.NoError(t, err)
	assert.True(t, set.Valid)
	assert.Equal(t, 1, txn.Staged())
}

func TestTxnInternExistingRowNotInCache(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO uri (id, value) VALUES (5, 'doc://external')`)
	require.NoError(t, err)

	c := NewCache()
	ids := internCommitted(t, db, c, URI, "doc://external")
	assert.Equal(t, int64(5), ids[0], "existing row id is reused, not duplicated")

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uri`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestTxnForgetAppliesWithStagedValues(t *testing.T) {
	db := openTestDB(t)
	c := NewCache()
	ctx := context.Background()
	ids := internCommitted(t, db, c, Text, "old", "kept")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	txn := c.Begin(tx)
	_, err = tx.Exec(`DELETE FROM text WHERE id = ?`, ids[0])
	require.NoError(t, err)
	txn.Forget(Text, ids[0])
	added, err := txn.Intern(ctx, Text, "new")
	require.NoError(t, err)

	assert.Equal(t, "old", c.Resolve(Text, ids[0]), "forget waits for Apply")

	txn.Apply()
	require.NoError(t, tx.Commit())

	_, err = c.Lookup(Text, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "kept", c.Resolve(Text, ids[1]))
	assert.Equal(t, "new", c.Resolve(Text, added))
	assert.Equal(t, 2, c.Len(Text))
}
