package symbol

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Table is the in-memory mirror of one symbol table.
type Table struct {
	kind    Kind
	mu      sync.RWMutex
	byValue map[string]int64
	byID    map[int64]string
}

func newTable(k Kind) *Table {
	return &Table{
		kind:    k,
		byValue: make(map[string]int64),
		byID:    make(map[int64]string),
	}
}

// Kind returns the kind this table mirrors.
func (t *Table) Kind() Kind {
	return t.kind
}

// Len returns the number of cached values.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

func (t *Table) lookup(value string) (int64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byValue[value]
	return id, ok
}

func (t *Table) resolve(id int64) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.byID[id]
	return v, ok
}

func (t *Table) put(value string, id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byValue[value] = id
	t.byID[id] = value
}

func (t *Table) forget(ids []int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if v, ok := t.byID[id]; ok {
			delete(t.byValue, v)
			delete(t.byID, id)
		}
	}
}

func (t *Table) replace(byValue map[string]int64) {
	byID := make(map[int64]string, len(byValue))
	for v, id := range byValue {
		byID[id] = v
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byValue = byValue
	t.byID = byID
}

// Cache holds one Table per Kind. The zero value is not usable; call
// NewCache.
type Cache struct {
	tables [numKinds]*Table
}

// NewCache returns an empty cache. Call Load before use against an existing
// database.
func NewCache() *Cache {
	c := &Cache{}
	for _, k := range Kinds() {
		c.tables[k] = newTable(k)
	}
	return c
}

// Table returns the mirror for k.
func (c *Cache) Table(k Kind) *Table {
	return c.tables[k]
}

// Load replaces the cache contents with one full scan per symbol table.
func (c *Cache) Load(ctx context.Context, q Querier) error {
	for _, k := range Kinds() {
		m, err := scanTable(ctx, q, k)
		if err != nil {
			return err
		}
		c.tables[k].replace(m)
	}
	return nil
}

func scanTable(ctx context.Context, q Querier, k Kind) (map[string]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, value FROM `+k.Table())
	if err != nil {
		return nil, fmt.Errorf("querying %s table: %w", k, err)
	}
	defer rows.Close()

	m := make(map[string]int64)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var id int64
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", k, err)
		}
		m[value] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", k, err)
	}
	return m, nil
}

// Lookup returns the id of an already-interned value without touching the
// database. Unknown values yield ErrNotFound.
func (c *Cache) Lookup(k Kind, value string) (int64, error) {
	if id, ok := c.tables[k].lookup(value); ok {
		return id, nil
	}
	return 0, fmt.Errorf("%s %q: %w", k, value, ErrNotFound)
}

// Resolve returns the value for an id handed out by this cache. It never
// touches the database and panics with *ConsistencyError for unknown ids.
func (c *Cache) Resolve(k Kind, id int64) string {
	v, ok := c.tables[k].resolve(id)
	if !ok {
		panic(&ConsistencyError{Kind: k, ID: id})
	}
	return v
}

// ResolveNull resolves a nullable foreign key, mapping NULL to "".
func (c *Cache) ResolveNull(k Kind, id sql.NullInt64) string {
	if !id.Valid {
		return ""
	}
	return c.Resolve(k, id.Int64)
}

// Forget drops ids that were purged from the database.
func (c *Cache) Forget(k Kind, ids ...int64) {
	c.tables[k].forget(ids)
}

// Len returns the number of cached values of kind k.
func (c *Cache) Len(k Kind) int {
	return c.tables[k].Len()
}
