package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeitgeist/internal/symbol"
)

func TestPurgeUnusedSymbols(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	keep := taggedEvent(1000, "doc://keep.txt", "shared")
	gone := taggedEvent(2000, "doc://gone.txt", "shared", "lonely")
	gone.Subjects[0].Mimetype = "image/png"
	gone.Subjects[0].Storage = "usb-1"
	res := mustInsert(t, s, keep, gone)

	_, err := s.DeleteEvent(ctx, res[1].ID)
	require.NoError(t, err)

	counts, err := s.PurgeUnusedSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[symbol.URI])
	assert.Equal(t, int64(1), counts[symbol.Tag])
	assert.Equal(t, int64(1), counts[symbol.Mimetype])
	assert.Equal(t, int64(1), counts[symbol.Text])
	assert.Zero(t, counts[symbol.Storage], "storage rows are never purged")
	assert.Zero(t, counts[symbol.Actor])

	_, err = s.Symbols().Lookup(symbol.URI, "doc://gone.txt")
	assert.ErrorIs(t, err, symbol.ErrNotFound)
	_, err = s.Symbols().Lookup(symbol.URI, "doc://keep.txt")
	assert.NoError(t, err)
	_, err = s.Symbols().Lookup(symbol.Storage, "usb-1")
	assert.NoError(t, err)

	// Surviving events still resolve.
	events, err := Collect(mustFind(t, s, FindRequest{}))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []string{"shared"}, events[0].Subjects[0].Tags)
}

func TestPurgeUnusedSymbols_KeepsFocusReferences(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		subj, err := tx.Intern(ctx, symbol.URI, "doc://focused.txt")
		if err != nil {
			return err
		}
		actor, err := tx.Intern(ctx, symbol.Actor, "app://editor.desktop")
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO focus_duration (subject_id, actor_id, focus_in) VALUES (?, ?, ?)`,
			subj, actor, 1000)
		return err
	})
	require.NoError(t, err)

	counts, err := s.PurgeUnusedSymbols(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[symbol.URI])
	assert.Zero(t, counts[symbol.Actor])
}

func TestPurgeUnusedSymbols_Empty(t *testing.T) {
	s := createTestStore(t)
	counts, err := s.PurgeUnusedSymbols(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}
