package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/zeitgeist/internal/event"
)

// Step upgrades the schema from one version to the next. It runs inside
// the transaction that also records the new version, so a failing step
// leaves the database untouched.
type Step func(ctx context.Context, tx *sql.Tx) error

// Migrator applies upgrade steps keyed by source version.
type Migrator struct {
	steps  map[int]Step
	logger *slog.Logger
}

// NewMigrator returns a migrator with no steps.
func NewMigrator(logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{steps: make(map[int]Step), logger: logger}
}

// DefaultMigrator returns a migrator with every core upgrade step.
func DefaultMigrator(logger *slog.Logger) *Migrator {
	m := NewMigrator(logger)
	m.Register(1, upgradeOntologyNamespaces)
	m.Register(2, upgradeStorage)
	m.Register(3, upgradeTagsAndFocus)
	m.Register(4, upgradeNaturalKeys)
	return m
}

// Register sets the step that upgrades version from to from+1.
func (m *Migrator) Register(from int, step Step) {
	m.steps[from] = step
}

// Versions returns the registered source versions in order.
func (m *Migrator) Versions() []int {
	out := make([]int, 0, len(m.steps))
	for v := range m.steps {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// RunUpgrades brings the database from current to target, committing after
// each step, and returns the version reached.
//
// The whole path is checked before the first step runs: a missing step
// refuses the upgrade outright rather than stopping halfway. A step error
// halts the run with the database at the last completed version. Running
// with current == target is a no-op.
func (m *Migrator) RunUpgrades(ctx context.Context, db *sql.DB, current, target int) (int, error) {
	if current > target {
		return current, &MigrationError{
			Code:    ErrCodeTooNew,
			Message: fmt.Sprintf("database schema version %d is newer than supported version %d", current, target),
			From:    current,
			To:      target,
		}
	}

	for v := current; v < target; v++ {
		if _, ok := m.steps[v]; !ok {
			return current, &MigrationError{
				Code:    ErrCodeMissingStep,
				Message: fmt.Sprintf("no upgrade step from version %d to %d", v, v+1),
				From:    v,
				To:      target,
			}
		}
	}

	for v := current; v < target; v++ {
		if err := m.runStep(ctx, db, v); err != nil {
			return v, &MigrationError{
				Code:    ErrCodeStepFailed,
				Message: fmt.Sprintf("upgrade from version %d to %d failed", v, v+1),
				From:    v,
				To:      target,
				Err:     err,
			}
		}
		m.logger.Info("schema upgraded", "from", v, "to", v+1)
	}
	return target, nil
}

func (m *Migrator) runStep(ctx context.Context, db *sql.DB, from int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := m.steps[from](ctx, tx); err != nil {
		return err
	}
	if err := writeVersion(ctx, tx, from+1); err != nil {
		return err
	}
	return tx.Commit()
}

// Legacy ontology terms and their 2010 replacements.
const (
	legacyCoreNS = "http://gnome.org/zeitgeist/schema/1.0/core#"
	zgNS         = "http://www.zeitgeist-project.com/ontologies/2010/01/27/zg#"
	nfoNS        = "http://www.semanticdesktop.org/ontologies/2007/03/22/nfo#"
	nieNS        = "http://www.semanticdesktop.org/ontologies/2007/01/19/nie#"
)

var legacyTerms = map[string]string{
	legacyCoreNS + "VisitEvent":   zgNS + "AccessEvent",
	legacyCoreNS + "OpenEvent":    zgNS + "AccessEvent",
	legacyCoreNS + "SaveEvent":    zgNS + "ModifyEvent",
	legacyCoreNS + "ModifyEvent":  zgNS + "ModifyEvent",
	legacyCoreNS + "CreateEvent":  zgNS + "CreateEvent",
	legacyCoreNS + "DeleteEvent":  zgNS + "DeleteEvent",
	legacyCoreNS + "UserActivity": zgNS + "UserActivity",
	legacyCoreNS + "Document":     nfoNS + "Document",
	legacyCoreNS + "Image":        nfoNS + "Image",
	legacyCoreNS + "Video":        nfoNS + "Video",
	legacyCoreNS + "Music":        nfoNS + "Audio",
	legacyCoreNS + "Bookmark":     nfoNS + "Bookmark",
	legacyCoreNS + "File":         nfoNS + "FileDataObject",
	legacyCoreNS + "WebHistory":   nfoNS + "WebHistory",
	legacyCoreNS + "Note":         nieNS + "InformationElement",
}

// upgradeOntologyNamespaces (1 -> 2) renames legacy ontology terms. When the
// new term already exists, references are repointed and the legacy row is
// dropped so the value stays unique.
func upgradeOntologyNamespaces(ctx context.Context, tx *sql.Tx) error {
	refs := map[string][]string{
		"interpretation": {"event.interpretation_id", "subject.interpretation_id"},
		"manifestation":  {"event.manifestation_id", "subject.manifestation_id"},
	}

	olds := make([]string, 0, len(legacyTerms))
	for old := range legacyTerms {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	for _, table := range []string{"interpretation", "manifestation"} {
		for _, old := range olds {
			if err := renameTerm(ctx, tx, table, refs[table], old, legacyTerms[old]); err != nil {
				return err
			}
		}
	}
	return nil
}

func renameTerm(ctx context.Context, tx *sql.Tx, table string, refs []string, oldValue, newValue string) error {
	var oldID int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE value = ?`, oldValue).Scan(&oldID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rename %s: %w", table, err)
	}

	var newID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE value = ?`, newValue).Scan(&newID)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET value = ? WHERE id = ?`, newValue, oldID); err != nil {
			return fmt.Errorf("rename %s: %w", table, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("rename %s: %w", table, err)
	}

	for _, ref := range refs {
		tbl, col, _ := strings.Cut(ref, ".")
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+tbl+` SET `+col+` = ? WHERE `+col+` = ?`, newID, oldID); err != nil {
			return fmt.Errorf("repoint %s: %w", ref, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, oldID); err != nil {
		return fmt.Errorf("rename %s: %w", table, err)
	}
	return nil
}

// upgradeStorage (2 -> 3) adds storage media and the subject's current URI,
// which starts out equal to the original URI.
func upgradeStorage(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS storage (
			id INTEGER PRIMARY KEY,
			value TEXT NOT NULL UNIQUE,
			state INTEGER NOT NULL DEFAULT 1,
			icon TEXT,
			display_name TEXT
		)`,
		`ALTER TABLE subject ADD COLUMN storage_id INTEGER REFERENCES storage(id)`,
		`ALTER TABLE subject ADD COLUMN current_uri_id INTEGER REFERENCES uri(id)`,
		`UPDATE subject SET current_uri_id = uri_id`,
		`CREATE INDEX IF NOT EXISTS idx_subject_current_uri ON subject(current_uri_id)`,
		`DROP VIEW IF EXISTS event_view`,
		eventViewSQL,
	}
	return execAll(ctx, tx, "upgrade storage", stmts)
}

// upgradeTagsAndFocus (3 -> 4) adds tags and the focus registers.
func upgradeTagsAndFocus(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tag (
			id INTEGER PRIMARY KEY,
			value TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS subject_tag (
			event_id INTEGER NOT NULL REFERENCES event(id) ON DELETE CASCADE,
			uri_id INTEGER NOT NULL REFERENCES uri(id),
			tag_id INTEGER NOT NULL REFERENCES tag(id),
			PRIMARY KEY (event_id, uri_id, tag_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subject_tag_tag ON subject_tag(tag_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subject_tag_uri ON subject_tag(uri_id)`,
		`CREATE TABLE IF NOT EXISTS focus_switch (
			id INTEGER PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			from_actor_id INTEGER REFERENCES actor(id),
			from_subject_id INTEGER REFERENCES uri(id),
			to_actor_id INTEGER REFERENCES actor(id),
			to_subject_id INTEGER REFERENCES uri(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_focus_switch_timestamp ON focus_switch(timestamp)`,
		`CREATE TABLE IF NOT EXISTS focus_duration (
			subject_id INTEGER NOT NULL REFERENCES uri(id),
			actor_id INTEGER NOT NULL REFERENCES actor(id),
			focus_in INTEGER NOT NULL,
			focus_out INTEGER,
			UNIQUE(subject_id, actor_id, focus_in, focus_out)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_focus_duration_out ON focus_duration(focus_out)`,
	}
	return execAll(ctx, tx, "upgrade tags and focus", stmts)
}

// upgradeNaturalKeys (4 -> 5) recomputes every event's natural key from its
// stored values. A recomputed key that collides with an existing row keeps
// the old key, so both events stay readable.
func upgradeNaturalKeys(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT e.id, e.timestamp,
			COALESCE(i.value, ''), COALESCE(m.value, ''), COALESCE(a.value, ''),
			u.value, COALESCE(si.value, ''), COALESCE(sm.value, '')
		FROM event e
		LEFT JOIN interpretation i ON i.id = e.interpretation_id
		LEFT JOIN manifestation m ON m.id = e.manifestation_id
		LEFT JOIN actor a ON a.id = e.actor_id
		JOIN subject s ON s.event_id = e.id
		JOIN uri u ON u.id = s.uri_id
		LEFT JOIN interpretation si ON si.id = s.interpretation_id
		LEFT JOIN manifestation sm ON sm.id = s.manifestation_id
		ORDER BY e.id, s.position
	`)
	if err != nil {
		return fmt.Errorf("rekey events: %w", err)
	}

	var events []event.Event
	for rows.Next() {
		var ev event.Event
		var subj event.Subject
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Interpretation, &ev.Manifestation, &ev.Actor,
			&subj.URI, &subj.Interpretation, &subj.Manifestation); err != nil {
			rows.Close()
			return fmt.Errorf("rekey events: %w", err)
		}
		if n := len(events); n > 0 && events[n-1].ID == ev.ID {
			events[n-1].Subjects = append(events[n-1].Subjects, subj)
			continue
		}
		ev.Subjects = []event.Subject{subj}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("rekey events: %w", err)
	}
	rows.Close()

	for _, ev := range events {
		if _, err := tx.ExecContext(ctx,
			`UPDATE OR IGNORE event SET natural_key = ? WHERE id = ?`, event.NaturalKey(ev), ev.ID); err != nil {
			return fmt.Errorf("rekey event %d: %w", ev.ID, err)
		}
	}
	return nil
}

func execAll(ctx context.Context, tx *sql.Tx, op string, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
