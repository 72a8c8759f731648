// Package store provides SQLite-backed durable storage for the activity
// journal.
//
// The schema holds:
//   - Symbol tables: uri, interpretation, manifestation, actor, mimetype,
//     text, storage and tag, each mapping an interned value to an id
//   - Events with 1..N subjects (subjects cascade with their event)
//   - Subject tags, focus switches and focus durations
//   - schema_version, owned by the migration runner
//
// # Invariants
//
// Duplicate detection:
//   - event.natural_key is UNIQUE; a duplicate insert reports
//     StatusDuplicate and writes nothing
//
// Symbol lifetime:
//   - Deleting events never deletes symbols; PurgeUnusedSymbols does
//
// Atomic writes:
//   - Every mutation runs in one transaction; interned values reach the
//     shared cache only after commit
//
// Deterministic reads:
//   - Event queries order by timestamp with the event id as tie-break,
//     then by subject position
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and cascades
package store
