package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/zeitgeist/internal/symbol"
)

// Tx is a write transaction with symbol interning. Values interned through
// it reach the shared symbol cache just before the transaction commits, and
// are withdrawn again if the commit fails.
type Tx struct {
	tx    *sql.Tx
	syms  *symbol.Txn
	cache *symbol.Cache
}

// Update runs fn inside a transaction and commits if fn returns nil.
// Any error, or a panic, rolls the transaction back.
//
// Staged symbols are published before Commit releases the connection, so a
// reader waiting on it never sees an event row whose symbols are missing
// from the cache. A failed commit reloads the cache from the database.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback() // No-op if committed

	tx := &Tx{tx: sqlTx, syms: s.symbols.Begin(sqlTx), cache: s.symbols}
	if err := fn(tx); err != nil {
		return err
	}
	tx.syms.Apply()
	if err := sqlTx.Commit(); err != nil {
		err = fmt.Errorf("commit: %w", err)
		if lerr := s.symbols.Load(context.WithoutCancel(ctx), s.db); lerr != nil {
			s.logger.Error("symbol cache reload failed", "error", lerr)
			return errors.Join(err, fmt.Errorf("reload symbols: %w", lerr))
		}
		return err
	}
	return nil
}

// Exec runs a statement in the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// Query runs a query in the transaction. Close the rows before issuing the
// next statement.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row query in the transaction.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

// Intern returns the id for value, inserting it if needed.
func (t *Tx) Intern(ctx context.Context, k symbol.Kind, value string) (int64, error) {
	return t.syms.Intern(ctx, k, value)
}

// InternOptional interns value, mapping "" to NULL.
func (t *Tx) InternOptional(ctx context.Context, k symbol.Kind, value string) (sql.NullInt64, error) {
	return t.syms.InternOptional(ctx, k, value)
}

// Lookup returns the id of value if it is interned, including values
// interned earlier in this transaction.
func (t *Tx) Lookup(k symbol.Kind, value string) (int64, bool) {
	return t.syms.Lookup(k, value)
}

// Forget drops ids from the symbol cache together with the commit. Call it
// after deleting their rows in this transaction.
func (t *Tx) Forget(k symbol.Kind, ids ...int64) {
	t.syms.Forget(k, ids...)
}

// Symbols returns the shared cache for resolving committed ids.
func (t *Tx) Symbols() *symbol.Cache {
	return t.cache
}
