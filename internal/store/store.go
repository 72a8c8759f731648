package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/zeitgeist/internal/symbol"
)

//go:embed schema.sql
var schemaSQL string

// eventViewSQL joins events to their subjects under the column names the
// where package targets. Every migration that touches event, subject or
// storage recreates it.
const eventViewSQL = `
CREATE VIEW IF NOT EXISTS event_view AS
SELECT
    e.id AS id,
    e.timestamp AS timestamp,
    e.interpretation_id AS interpretation,
    e.manifestation_id AS manifestation,
    e.actor_id AS actor,
    e.origin_uri_id AS origin,
    e.payload AS payload,
    s.position AS subj_position,
    s.uri_id AS subj_id,
    COALESCE(s.current_uri_id, s.uri_id) AS subj_id_current,
    s.interpretation_id AS subj_interpretation,
    s.manifestation_id AS subj_manifestation,
    s.origin_uri_id AS subj_origin,
    s.mimetype_id AS subj_mimetype,
    s.text_id AS subj_text,
    s.storage_id AS subj_storage,
    COALESCE(st.state, 1) AS subj_storage_state
FROM event e
JOIN subject s ON s.event_id = e.id
LEFT JOIN storage st ON st.id = s.storage_id
`

// Schema version tracking (schema_version row "core"):
// 1 - events, subjects and the core symbol tables
// 2 - ontology terms moved to the 2010 namespaces
// 3 - storage media, subject storage and current URI
// 4 - tags and focus registers
// 5 - natural keys hash raw bytes
const currentSchemaVersion = 5

// coreSchema keys the core component's row in schema_version.
const coreSchema = "core"

const defaultBusyTimeout = 5000

// Store provides durable storage for the activity journal.
// Uses SQLite with WAL mode for concurrent reads and a single connection so
// every write is serialized.
type Store struct {
	db      *sql.DB
	symbols *symbol.Cache
	logger  *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	busyTimeout int
	migrator    *Migrator
}

// WithLogger sets the logger used for migrations and maintenance.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBusyTimeout sets SQLite's busy_timeout in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(o *options) {
		if ms > 0 {
			o.busyTimeout = ms
		}
	}
}

// WithMigrator replaces the default upgrade steps. Used by tests.
func WithMigrator(m *Migrator) Option {
	return func(o *options) {
		o.migrator = m
	}
}

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - busy timeout for lock contention (5 seconds by default)
//   - Foreign key enforcement
//
// A fresh database gets the current schema. An older one is upgraded by the
// migration runner before anything else reads it; one that cannot be
// brought current is refused. Finally the symbol cache is loaded.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		logger:      slog.Default(),
		busyTimeout: defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.migrator == nil {
		o.migrator = DefaultMigrator(o.logger)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, o.busyTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	ctx := context.Background()
	if err := applySchema(ctx, db, o.migrator); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	symbols := symbol.NewCache()
	if err := symbols.Load(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load symbols: %w", err)
	}

	return &Store{db: db, symbols: symbols, logger: o.logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Symbols returns the interning cache mirroring this store's symbol tables.
func (s *Store) Symbols() *symbol.Cache {
	return s.symbols
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// Query executes a read query. Callers are responsible for closing the
// returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// SchemaVersion returns the version recorded for the core schema.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	v, ok, err := readVersion(ctx, s.db)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("schema version missing")
	}
	return v, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, busyTimeout int) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema bootstraps a fresh database or brings an existing one to the
// current version.
func applySchema(ctx context.Context, db *sql.DB, m *Migrator) error {
	version, ok, err := readVersion(ctx, db)
	if err != nil {
		return err
	}

	if !ok {
		populated, err := tableExists(ctx, db, "event")
		if err != nil {
			return err
		}
		if populated {
			return &MigrationError{
				Code:    ErrCodeUnversioned,
				Message: "database has an event table but no schema version",
			}
		}
		return bootstrap(ctx, db)
	}

	_, err = m.RunUpgrades(ctx, db, version, currentSchemaVersion)
	return err
}

// bootstrap creates the current schema in one transaction.
func bootstrap(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bootstrap: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, eventViewSQL); err != nil {
		return fmt.Errorf("failed to create event_view: %w", err)
	}
	if err := writeVersion(ctx, tx, currentSchemaVersion); err != nil {
		return err
	}
	return tx.Commit()
}

// readVersion returns the core schema version and whether one is recorded.
func readVersion(ctx context.Context, q queryRower) (int, bool, error) {
	exists, err := tableExists(ctx, q, "schema_version")
	if err != nil || !exists {
		return 0, false, err
	}
	var v int
	err = q.QueryRowContext(ctx, `SELECT version FROM schema_version WHERE schema = ?`, coreSchema).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return v, true, nil
}

func writeVersion(ctx context.Context, tx *sql.Tx, v int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO schema_version (schema, version) VALUES (?, ?)
		ON CONFLICT(schema) DO UPDATE SET version = excluded.version
	`, coreSchema, v)
	if err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func tableExists(ctx context.Context, q queryRower, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
