package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/symbol"
)

// InsertStatus reports what an insert did.
type InsertStatus int

const (
	// StatusInserted means a new event row was written.
	StatusInserted InsertStatus = iota
	// StatusDuplicate means an event with the same natural key already
	// existed. Nothing was written.
	StatusDuplicate
)

func (s InsertStatus) String() string {
	if s == StatusDuplicate {
		return "duplicate"
	}
	return "inserted"
}

// InsertResult is the outcome of one insert. ID is the new event's id, or
// the existing event's id for a duplicate.
type InsertResult struct {
	ID     int64        `json:"id"`
	Status InsertStatus `json:"status"`
}

// InsertEvent stores an event and its subjects in one transaction.
//
// Every symbolic field is interned first. An event whose natural key (see
// event.NaturalKey) is already stored is reported as StatusDuplicate with a
// nil error; data sources re-scanning overlapping windows hit this
// routinely.
func (s *Store) InsertEvent(ctx context.Context, ev event.Event) (InsertResult, error) {
	var res InsertResult
	err := s.Update(ctx, func(tx *Tx) error {
		var err error
		res, err = tx.InsertEvent(ctx, ev)
		return err
	})
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert event: %w", err)
	}
	return res, nil
}

// InsertEvent stores an event as part of a larger transaction. The event
// becomes visible, and its symbols reach the cache, when the transaction
// commits.
func (t *Tx) InsertEvent(ctx context.Context, ev event.Event) (InsertResult, error) {
	if err := ev.Validate(); err != nil {
		return InsertResult{}, err
	}
	ev = ev.Normalized()

	return insertEvent(ctx, t, ev, event.NaturalKey(ev))
}

// InsertEvents inserts events one transaction each, in order, and stops at
// the first error. Results for the events already stored are returned with
// the error.
func (s *Store) InsertEvents(ctx context.Context, events []event.Event) ([]InsertResult, error) {
	results := make([]InsertResult, 0, len(events))
	for i, ev := range events {
		res, err := s.InsertEvent(ctx, ev)
		if err != nil {
			return results, fmt.Errorf("event[%d]: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func insertEvent(ctx context.Context, tx *Tx, ev event.Event, key string) (InsertResult, error) {
	var existing int64
	err := tx.QueryRow(ctx, `SELECT id FROM event WHERE natural_key = ?`, key).Scan(&existing)
	if err == nil {
		return InsertResult{ID: existing, Status: StatusDuplicate}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return InsertResult{}, fmt.Errorf("check natural key: %w", err)
	}

	interp, err := tx.InternOptional(ctx, symbol.Interpretation, ev.Interpretation)
	if err != nil {
		return InsertResult{}, err
	}
	manif, err := tx.InternOptional(ctx, symbol.Manifestation, ev.Manifestation)
	if err != nil {
		return InsertResult{}, err
	}
	actor, err := tx.InternOptional(ctx, symbol.Actor, ev.Actor)
	if err != nil {
		return InsertResult{}, err
	}
	origin, err := tx.InternOptional(ctx, symbol.URI, ev.Origin)
	if err != nil {
		return InsertResult{}, err
	}

	var payload any
	if len(ev.Payload) > 0 {
		payload = ev.Payload
	}

	result, err := tx.Exec(ctx, `
		INSERT INTO event
		(timestamp, interpretation_id, manifestation_id, actor_id, origin_uri_id, payload, natural_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO NOTHING
	`, ev.Timestamp, interp, manif, actor, origin, payload, key)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert event row: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return InsertResult{}, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return InsertResult{}, fmt.Errorf("event row not written for key %s", key)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return InsertResult{}, fmt.Errorf("last insert id: %w", err)
	}

	for i, subj := range ev.Subjects {
		if err := insertSubject(ctx, tx, id, i, subj); err != nil {
			return InsertResult{}, fmt.Errorf("subject[%d]: %w", i, err)
		}
	}

	return InsertResult{ID: id, Status: StatusInserted}, nil
}

func insertSubject(ctx context.Context, tx *Tx, eventID int64, position int, subj event.Subject) error {
	uri, err := tx.Intern(ctx, symbol.URI, subj.URI)
	if err != nil {
		return err
	}
	current, err := tx.Intern(ctx, symbol.URI, subj.CurrentURI)
	if err != nil {
		return err
	}

	fields := [...]struct {
		kind  symbol.Kind
		value string
	}{
		{symbol.Interpretation, subj.Interpretation},
		{symbol.Manifestation, subj.Manifestation},
		{symbol.URI, subj.Origin},
		{symbol.Mimetype, subj.Mimetype},
		{symbol.Text, subj.Text},
		{symbol.Storage, subj.Storage},
	}
	var ids [len(fields)]sql.NullInt64
	for i, f := range fields {
		if ids[i], err = tx.InternOptional(ctx, f.kind, f.value); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subject
		(event_id, position, uri_id, current_uri_id, interpretation_id, manifestation_id,
		 origin_uri_id, mimetype_id, text_id, storage_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eventID, position, uri, current, ids[0], ids[1], ids[2], ids[3], ids[4], ids[5])
	if err != nil {
		return fmt.Errorf("insert subject row: %w", err)
	}

	for _, tag := range subj.Tags {
		tagID, err := tx.Intern(ctx, symbol.Tag, tag)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO subject_tag (event_id, uri_id, tag_id) VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, eventID, uri, tagID); err != nil {
			return fmt.Errorf("insert subject tag: %w", err)
		}
	}
	return nil
}

// DeleteEvent removes one event with its subjects and tag links. Symbol
// rows are kept. It reports whether the event existed.
func (s *Store) DeleteEvent(ctx context.Context, id int64) (bool, error) {
	n, err := s.DeleteEvents(ctx, id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteEvents removes events by id and returns how many existed.
func (s *Store) DeleteEvents(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := s.Update(ctx, func(tx *Tx) error {
		in, args := sqlArray(ids)
		res, err := tx.Exec(ctx, `DELETE FROM event WHERE id IN `+in, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return n, nil
}

// DeleteBySubject removes every event with a subject whose original or
// current URI is uri, and returns how many were removed. The URI itself
// stays interned.
func (s *Store) DeleteBySubject(ctx context.Context, uri string) (int64, error) {
	id, err := s.symbols.Lookup(symbol.URI, uri)
	if errors.Is(err, symbol.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("delete by subject: %w", err)
	}

	var n int64
	err = s.Update(ctx, func(tx *Tx) error {
		res, err := tx.Exec(ctx, `
			DELETE FROM event WHERE id IN (
				SELECT event_id FROM subject WHERE uri_id = ? OR current_uri_id = ?
			)
		`, id, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete by subject: %w", err)
	}
	return n, nil
}

// sqlArray renders ids as a parenthesized placeholder list with matching
// arguments.
func sqlArray(ids []int64) (string, []any) {
	if len(ids) == 0 {
		return "()", nil
	}
	args := make([]any, len(ids))
	b := make([]byte, 0, 2*len(ids)+1)
	b = append(b, '(')
	for i, id := range ids {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
		args[i] = id
	}
	b = append(b, ')')
	return string(b), args
}
