package symbol

import (
	"context"
	"database/sql"
	"fmt"
)

// Execer is satisfied by *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Txn stages newly interned values and dropped ids for one database
// transaction. Staged values are visible through the Txn immediately but
// reach the shared cache only when Apply is called. A rolled-back
// transaction simply drops its Txn.
type Txn struct {
	cache     *Cache
	tx        Execer
	staged    [numKinds]map[string]int64
	forgotten [numKinds][]int64
}

// Begin opens a staging scope bound to tx.
func (c *Cache) Begin(tx Execer) *Txn {
	return &Txn{cache: c, tx: tx}
}

// Intern returns the id for value, inserting a row through the transaction
// when the value has never been seen.
func (t *Txn) Intern(ctx context.Context, k Kind, value string) (int64, error) {
	if id, ok := t.Lookup(k, value); ok {
		return id, nil
	}

	table := k.Table()
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO `+table+` (value) VALUES (?) ON CONFLICT(value) DO NOTHING`, value); err != nil {
		return 0, fmt.Errorf("intern %s: %w", k, err)
	}
	var id int64
	if err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE value = ?`, value).Scan(&id); err != nil {
		return 0, fmt.Errorf("intern %s: read id: %w", k, err)
	}

	if t.staged[k] == nil {
		t.staged[k] = make(map[string]int64)
	}
	t.staged[k][value] = id
	return id, nil
}

// InternOptional interns value unless it is empty, in which case it returns
// a NULL id.
func (t *Txn) InternOptional(ctx context.Context, k Kind, value string) (sql.NullInt64, error) {
	if value == "" {
		return sql.NullInt64{}, nil
	}
	id, err := t.Intern(ctx, k, value)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

// Lookup checks staged values first, then the shared cache.
func (t *Txn) Lookup(k Kind, value string) (int64, bool) {
	if id, ok := t.staged[k][value]; ok {
		return id, true
	}
	return t.cache.tables[k].lookup(value)
}

// Staged returns how many new values the transaction interned.
func (t *Txn) Staged() int {
	n := 0
	for _, m := range t.staged {
		n += len(m)
	}
	return n
}

// Forget stages ids to drop from the shared cache on Apply. Only forget ids
// whose rows the transaction deleted.
func (t *Txn) Forget(k Kind, ids ...int64) {
	t.forgotten[k] = append(t.forgotten[k], ids...)
	for _, id := range ids {
		for v, sid := range t.staged[k] {
			if sid == id {
				delete(t.staged[k], v)
			}
		}
	}
}

// Apply publishes staged values and drops forgotten ids in the shared
// cache. Call it while the transaction still holds the connection, right
// before commit: a reader that sees the committed rows must also find
// their symbols. If the commit then fails, reload the cache.
func (t *Txn) Apply() {
	for k, m := range t.staged {
		table := t.cache.tables[k]
		for v, id := range m {
			table.put(v, id)
		}
	}
	for k, ids := range t.forgotten {
		if len(ids) > 0 {
			t.cache.tables[k].forget(ids)
		}
	}
	t.staged = [numKinds]map[string]int64{}
	t.forgotten = [numKinds][]int64{}
}
