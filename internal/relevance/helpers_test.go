package relevance

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/store"
	"github.com/roach88/zeitgeist/internal/testutil"
)

const (
	editor = "app://editor.desktop"
	hour   = int64(time.Hour / time.Millisecond)
	day    = 24 * hour
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestEngine opens a fresh store and an engine whose clock reads now.
func createTestEngine(t *testing.T, now int64) (*Engine, *store.Store, *testutil.ManualClock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.WithLogger(discardLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewManualClock(now)
	return New(st, WithClock(clock), WithLogger(discardLogger())), st, clock
}

func access(ts int64, uris ...string) event.Event {
	ev := event.Event{Timestamp: ts, Actor: editor}
	for _, uri := range uris {
		ev.Subjects = append(ev.Subjects, event.Subject{URI: uri})
	}
	return ev
}

func tagged(ts int64, uri string, tags ...string) event.Event {
	ev := access(ts, uri)
	ev.Subjects[0].Tags = tags
	return ev
}

func insert(t *testing.T, st *store.Store, events ...event.Event) {
	t.Helper()
	_, err := st.InsertEvents(context.Background(), events)
	require.NoError(t, err)
}

func findRange(start, end int64) store.FindRequest {
	return store.FindRequest{Range: event.TimeRange{Start: start, End: end}}
}
