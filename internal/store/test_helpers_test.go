package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/zeitgeist/internal/event"
)

const (
	testActor  = "app://editor.desktop"
	testAccess = "http://www.zeitgeist-project.com/ontologies/2010/01/27/zg#AccessEvent"
	testUser   = "http://www.zeitgeist-project.com/ontologies/2010/01/27/zg#UserActivity"
	testDoc    = "http://www.semanticdesktop.org/ontologies/2007/03/22/nfo#Document"
	testFile   = "http://www.semanticdesktop.org/ontologies/2007/03/22/nfo#FileDataObject"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates an access event by the test actor on the given
// URIs.
func createTestEvent(ts int64, uris ...string) event.Event {
	ev := event.Event{
		Timestamp:      ts,
		Interpretation: testAccess,
		Manifestation:  testUser,
		Actor:          testActor,
	}
	for _, uri := range uris {
		ev.Subjects = append(ev.Subjects, event.Subject{
			URI:            uri,
			Interpretation: testDoc,
			Manifestation:  testFile,
			Mimetype:       "text/plain",
			Text:           filepath.Base(uri),
		})
	}
	return ev
}

// mustInsert inserts events and fails the test on error.
func mustInsert(t *testing.T, s *Store, events ...event.Event) []InsertResult {
	t.Helper()
	results, err := s.InsertEvents(context.Background(), events)
	if err != nil {
		t.Fatalf("InsertEvents() failed: %v", err)
	}
	return results
}

// countRows returns the row count of a table.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
