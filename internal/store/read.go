package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/filter"
	"github.com/roach88/zeitgeist/internal/symbol"
	"github.com/roach88/zeitgeist/internal/where"
)

// FindRequest selects events.
type FindRequest struct {
	// Range is the half-open [Start, End) timestamp window.
	Range event.TimeRange
	// Where is AND-ed with the range. nil places no restriction.
	Where *where.Clause
	// Order sorts by timestamp, with the event id as tie-break.
	Order event.Order
	// Limit caps the number of events (not subject rows). 0 means no limit.
	Limit int
	// StorageState keeps only events whose subjects are all available, or
	// those with at least one unavailable subject.
	StorageState event.StorageState
}

// Compile turns a filter expression into a clause using this store's
// symbol cache.
func (s *Store) Compile(expr filter.Expr) (*where.Clause, error) {
	return where.Compile(expr, s.symbols)
}

// selectIDs builds the subquery selecting matching event ids in order.
// ok is false when the request can match nothing.
func selectIDs(req FindRequest) (query string, args []any, ok bool) {
	if req.Where != nil && !req.Where.MayHaveResults() {
		return "", nil, false
	}

	c := where.New(where.And, false)
	c.Add("timestamp >= ?", req.Range.Start)
	if req.Range.Bounded() {
		c.Add("timestamp < ?", req.Range.End)
	}
	c.Extend(req.Where)
	switch req.StorageState {
	case event.StorageAvailable:
		c.Add("id NOT IN (SELECT id FROM event_view WHERE subj_storage_state = 0)")
	case event.StorageUnavailable:
		c.Add("id IN (SELECT id FROM event_view WHERE subj_storage_state = 0)")
	}

	query = "SELECT id FROM event_view WHERE " + c.SQL() +
		" GROUP BY id ORDER BY " + orderBy(req.Order, "")
	args = c.Args()
	if req.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, req.Limit)
	}
	return query, args, true
}

func orderBy(o event.Order, prefix string) string {
	dir := "ASC"
	if o == event.OrderDescending {
		dir = "DESC"
	}
	return fmt.Sprintf("%stimestamp %s, %sid %s", prefix, dir, prefix, dir)
}

// FindEvents runs the central read path and returns a lazy cursor over the
// matching events, each with all of its subjects.
//
// The cursor holds the store's only connection until it is exhausted or
// closed; do not issue other store calls while iterating. Collect reads
// everything at once.
func (s *Store) FindEvents(ctx context.Context, req FindRequest) (*Cursor, error) {
	ids, args, ok := selectIDs(req)
	if !ok {
		return &Cursor{done: true}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ev.id, ev.timestamp, ev.interpretation, ev.manifestation, ev.actor, ev.origin, ev.payload,
		       ev.subj_id, ev.subj_id_current, ev.subj_interpretation, ev.subj_manifestation,
		       ev.subj_origin, ev.subj_mimetype, ev.subj_text, ev.subj_storage,
		       (SELECT group_concat(st.tag_id) FROM subject_tag st
		        WHERE st.event_id = ev.id AND st.uri_id = ev.subj_id)
		FROM event_view ev
		WHERE ev.id IN (`+ids+`)
		ORDER BY `+orderBy(req.Order, "ev.")+`, ev.subj_position ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	return &Cursor{rows: rows, syms: s.symbols}, nil
}

// FindEventIDs returns only the ids FindEvents would yield, in order.
func (s *Store) FindEventIDs(ctx context.Context, req FindRequest) ([]int64, error) {
	query, args, ok := selectIDs(req)
	if !ok {
		return []int64{}, nil
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find event ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event ids: %w", err)
	}
	return ids, nil
}

// GetEvents loads events by id in the order given. Ids that do not exist
// are skipped.
func (s *Store) GetEvents(ctx context.Context, ids ...int64) ([]event.Event, error) {
	if len(ids) == 0 {
		return []event.Event{}, nil
	}
	in, args := sqlArray(ids)
	c := where.New(where.And, false)
	c.Add("id IN "+in, args...)

	cur, err := s.FindEvents(ctx, FindRequest{Where: c})
	if err != nil {
		return nil, err
	}
	found, err := Collect(cur)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]event.Event, len(found))
	for _, ev := range found {
		byID[ev.ID] = ev
	}
	out := make([]event.Event, 0, len(ids))
	for _, id := range ids {
		if ev, ok := byID[id]; ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

// LastInsertionTimestamp returns the newest event timestamp recorded for
// actor, or 0 when there is none.
func (s *Store) LastInsertionTimestamp(ctx context.Context, actor string) (int64, error) {
	id, err := s.symbols.Lookup(symbol.Actor, actor)
	if errors.Is(err, symbol.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var ts int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(timestamp), 0) FROM event WHERE actor_id = ?`, id).Scan(&ts)
	if err != nil {
		return 0, fmt.Errorf("last insertion timestamp: %w", err)
	}
	return ts, nil
}

// Cursor is a forward-only, single-pass sequence of events. Rows from the
// joined view are regrouped into events and resolved through the symbol
// cache as the caller advances. Restart by issuing the query again.
type Cursor struct {
	rows *sql.Rows
	syms *symbol.Cache
	cur  event.Event
	next *eventRow
	err  error
	done bool
}

type eventRow struct {
	id        int64
	timestamp int64
	interp    sql.NullInt64
	manif     sql.NullInt64
	actor     sql.NullInt64
	origin    sql.NullInt64
	payload   []byte

	subjURI     int64
	subjCurrent int64
	subjInterp  sql.NullInt64
	subjManif   sql.NullInt64
	subjOrigin  sql.NullInt64
	subjMime    sql.NullInt64
	subjText    sql.NullInt64
	subjStorage sql.NullInt64
	tags        sql.NullString
}

// Next advances to the next event. It returns false when the sequence is
// exhausted or an error occurred; check Err.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	if c.next == nil && !c.readRow() {
		c.finish()
		return false
	}

	first := c.next
	c.next = nil
	c.cur = c.eventOf(first)
	c.cur.Subjects = []event.Subject{c.subjectOf(first)}

	for c.readRow() {
		if c.next.id != first.id {
			return true
		}
		c.cur.Subjects = append(c.cur.Subjects, c.subjectOf(c.next))
		c.next = nil
	}
	c.finish()
	return c.err == nil
}

// Event returns the current event.
func (c *Cursor) Event() event.Event {
	return c.cur
}

// Err returns the first error met while iterating.
func (c *Cursor) Err() error {
	return c.err
}

// Close releases the underlying rows. It is safe to call more than once.
func (c *Cursor) Close() error {
	c.done = true
	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	return err
}

func (c *Cursor) finish() {
	c.done = true
	if c.rows != nil {
		if err := c.rows.Err(); err != nil && c.err == nil {
			c.err = fmt.Errorf("iterate events: %w", err)
		}
		c.rows.Close()
		c.rows = nil
	}
}

func (c *Cursor) readRow() bool {
	if c.rows == nil || c.err != nil || !c.rows.Next() {
		return false
	}
	r := &eventRow{}
	err := c.rows.Scan(
		&r.id, &r.timestamp, &r.interp, &r.manif, &r.actor, &r.origin, &r.payload,
		&r.subjURI, &r.subjCurrent, &r.subjInterp, &r.subjManif,
		&r.subjOrigin, &r.subjMime, &r.subjText, &r.subjStorage, &r.tags,
	)
	if err != nil {
		c.err = fmt.Errorf("scan event: %w", err)
		return false
	}
	c.next = r
	return true
}

func (c *Cursor) eventOf(r *eventRow) event.Event {
	return event.Event{
		ID:             r.id,
		Timestamp:      r.timestamp,
		Interpretation: c.syms.ResolveNull(symbol.Interpretation, r.interp),
		Manifestation:  c.syms.ResolveNull(symbol.Manifestation, r.manif),
		Actor:          c.syms.ResolveNull(symbol.Actor, r.actor),
		Origin:         c.syms.ResolveNull(symbol.URI, r.origin),
		Payload:        r.payload,
	}
}

func (c *Cursor) subjectOf(r *eventRow) event.Subject {
	subj := event.Subject{
		URI:            c.syms.Resolve(symbol.URI, r.subjURI),
		CurrentURI:     c.syms.Resolve(symbol.URI, r.subjCurrent),
		Interpretation: c.syms.ResolveNull(symbol.Interpretation, r.subjInterp),
		Manifestation:  c.syms.ResolveNull(symbol.Manifestation, r.subjManif),
		Origin:         c.syms.ResolveNull(symbol.URI, r.subjOrigin),
		Mimetype:       c.syms.ResolveNull(symbol.Mimetype, r.subjMime),
		Text:           c.syms.ResolveNull(symbol.Text, r.subjText),
		Storage:        c.syms.ResolveNull(symbol.Storage, r.subjStorage),
	}
	if r.tags.Valid && r.tags.String != "" {
		for _, part := range strings.Split(r.tags.String, ",") {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				continue
			}
			subj.Tags = append(subj.Tags, c.syms.Resolve(symbol.Tag, id))
		}
		sort.Strings(subj.Tags)
	}
	return subj
}

// Collect drains a cursor into a slice and closes it. The result is never
// nil.
func Collect(c *Cursor) ([]event.Event, error) {
	defer c.Close()
	out := []event.Event{}
	for c.Next() {
		out = append(out, c.Event())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
