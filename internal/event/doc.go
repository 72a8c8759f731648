// Package event defines the journal's domain types: events, their subjects,
// time ranges and orderings, plus the canonical encoding used to derive an
// event's natural key.
//
// This package imports nothing internal. Every other package builds on it.
//
// Key constraints:
//   - Timestamps are milliseconds since the Unix epoch (int64)
//   - All symbolic fields are opaque URI strings; interning happens in the store
//   - JSON tags use snake_case
package event
