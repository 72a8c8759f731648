package relevance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/store"
	"github.com/roach88/zeitgeist/internal/symbol"
)

// FocusSwitch is one observed change of focus. Either side may be empty
// when focus came from, or went to, something that is not a document.
type FocusSwitch struct {
	Timestamp   int64  `json:"timestamp" yaml:"timestamp"`
	FromActor   string `json:"from_actor,omitempty" yaml:"from_actor,omitempty"`
	FromSubject string `json:"from_subject,omitempty" yaml:"from_subject,omitempty"`
	ToActor     string `json:"to_actor,omitempty" yaml:"to_actor,omitempty"`
	ToSubject   string `json:"to_subject,omitempty" yaml:"to_subject,omitempty"`
}

// FocusSwitchRegister is the append-only log of focus switches.
type FocusSwitchRegister struct {
	store  *store.Store
	logger *slog.Logger
}

// NewFocusSwitchRegister creates a register over st.
func NewFocusSwitchRegister(st *store.Store) *FocusSwitchRegister {
	return &FocusSwitchRegister{store: st, logger: st.Logger()}
}

// Register appends a switch, interning its actors and subjects.
func (r *FocusSwitchRegister) Register(ctx context.Context, sw FocusSwitch) error {
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		return registerSwitch(ctx, tx, sw)
	})
	if err != nil {
		return fmt.Errorf("register focus switch: %w", err)
	}
	return nil
}

// RegisterTx appends a switch inside an existing transaction.
func (r *FocusSwitchRegister) RegisterTx(ctx context.Context, tx *store.Tx, sw FocusSwitch) error {
	return registerSwitch(ctx, tx, sw)
}

func registerSwitch(ctx context.Context, tx *store.Tx, sw FocusSwitch) error {
	fields := [...]struct {
		kind  symbol.Kind
		value string
	}{
		{symbol.Actor, sw.FromActor},
		{symbol.URI, sw.FromSubject},
		{symbol.Actor, sw.ToActor},
		{symbol.URI, sw.ToSubject},
	}
	var ids [len(fields)]any
	for i, f := range fields {
		id, err := tx.InternOptional(ctx, f.kind, f.value)
		if err != nil {
			return err
		}
		ids[i] = id
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO focus_switch (timestamp, from_actor_id, from_subject_id, to_actor_id, to_subject_id)
		VALUES (?, ?, ?, ?, ?)
	`, sw.Timestamp, ids[0], ids[1], ids[2], ids[3])
	return err
}

// Related ranks the subjects focused right before or right after uri
// within rng. Transitions into uri count their source, transitions out of
// it count their target.
func (r *FocusSwitchRegister) Related(ctx context.Context, uri string, rng event.TimeRange, limit int) ([]Ranked, error) {
	id, ok, err := lookupURI(r.store, uri)
	if err != nil {
		return nil, fmt.Errorf("focus related: %w", err)
	}
	if !ok {
		return []Ranked{}, nil
	}

	window, wargs := rangeCondition("timestamp", rng)
	args := []any{id}
	args = append(args, wargs...)
	args = append(args, id)
	args = append(args, wargs...)
	args = append(args, id, limitOrDefault(limit))

	return queryRanked(ctx, r.store, "focus related", `
		SELECT u.value, COUNT(*) AS n
		FROM (
			SELECT from_subject_id AS other FROM focus_switch
			WHERE to_subject_id = ? AND `+window+`
			UNION ALL
			SELECT to_subject_id AS other FROM focus_switch
			WHERE from_subject_id = ? AND `+window+`
		) x
		JOIN uri u ON u.id = x.other
		WHERE x.other != ?
		GROUP BY x.other
		ORDER BY n DESC, u.value ASC
		LIMIT ?
	`, args...)
}

// Clear removes every recorded switch.
func (r *FocusSwitchRegister) Clear(ctx context.Context) (int64, error) {
	return deleteRows(ctx, r.store, "clear focus switches", `DELETE FROM focus_switch`)
}

// Prune removes switches recorded before the given timestamp.
func (r *FocusSwitchRegister) Prune(ctx context.Context, before int64) (int64, error) {
	n, err := deleteRows(ctx, r.store, "prune focus switches",
		`DELETE FROM focus_switch WHERE timestamp < ?`, before)
	if err == nil && n > 0 {
		r.logger.Info("pruned focus switches", "before", before, "count", n)
	}
	return n, err
}

// FocusTotal is the total focused time of a subject or actor.
type FocusTotal struct {
	Value    string `json:"value"`
	Duration int64  `json:"duration"` // ms
}

// FocusDurationRegister tracks focus intervals per (subject, actor).
// At most one interval is open at a time.
type FocusDurationRegister struct {
	store  *store.Store
	logger *slog.Logger
}

// NewFocusDurationRegister creates a register over st.
func NewFocusDurationRegister(st *store.Store) *FocusDurationRegister {
	return &FocusDurationRegister{store: st, logger: st.Logger()}
}

// FocusChange records that focus moved at timestamp. The open interval,
// if any, is closed at timestamp; a new one opens for (subjectURI, actor)
// unless subjectURI is empty. Focusing the pair that is already open
// changes nothing, and an interval closed at its own start is dropped.
func (r *FocusDurationRegister) FocusChange(ctx context.Context, timestamp int64, actor, subjectURI string) error {
	if subjectURI != "" && actor == "" {
		return fmt.Errorf("focus change: subject %q without actor", subjectURI)
	}
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		return focusChange(ctx, tx, timestamp, actor, subjectURI)
	})
	if err != nil {
		return fmt.Errorf("focus change: %w", err)
	}
	return nil
}

// FocusChangeTx records a focus change inside an existing transaction.
func (r *FocusDurationRegister) FocusChangeTx(ctx context.Context, tx *store.Tx, timestamp int64, actor, subjectURI string) error {
	if subjectURI != "" && actor == "" {
		return fmt.Errorf("focus change: subject %q without actor", subjectURI)
	}
	return focusChange(ctx, tx, timestamp, actor, subjectURI)
}

func focusChange(ctx context.Context, tx *store.Tx, timestamp int64, actor, subjectURI string) error {
	var subj, act int64
	if subjectURI != "" {
		var err error
		if subj, err = tx.Intern(ctx, symbol.URI, subjectURI); err != nil {
			return err
		}
		if act, err = tx.Intern(ctx, symbol.Actor, actor); err != nil {
			return err
		}
		var open bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM focus_duration
			WHERE subject_id = ? AND actor_id = ? AND focus_out IS NULL)
		`, subj, act).Scan(&open); err != nil {
			return fmt.Errorf("check open interval: %w", err)
		}
		if open {
			// Focus did not move.
			return nil
		}
	}

	// Intervals closing where they opened carry no time.
	if _, err := tx.Exec(ctx,
		`DELETE FROM focus_duration WHERE focus_out IS NULL AND focus_in = ?`, timestamp); err != nil {
		return fmt.Errorf("close interval: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE focus_duration SET focus_out = ? WHERE focus_out IS NULL`, timestamp); err != nil {
		return fmt.Errorf("close interval: %w", err)
	}
	if subjectURI == "" {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO focus_duration (subject_id, actor_id, focus_in, focus_out)
		VALUES (?, ?, ?, NULL)
	`, subj, act, timestamp); err != nil {
		return fmt.Errorf("open interval: %w", err)
	}
	return nil
}

// Duration returns the total closed focus time on uri for intervals that
// began within rng.
func (r *FocusDurationRegister) Duration(ctx context.Context, uri string, rng event.TimeRange) (int64, error) {
	id, ok, err := lookupURI(r.store, uri)
	if err != nil {
		return 0, fmt.Errorf("focus duration: %w", err)
	}
	if !ok {
		return 0, nil
	}

	window, wargs := rangeCondition("focus_in", rng)
	var total int64
	err = r.store.DB().QueryRowContext(ctx, `
		SELECT COALESCE(SUM(focus_out), 0) - COALESCE(SUM(focus_in), 0)
		FROM focus_duration
		WHERE subject_id = ? AND focus_out IS NOT NULL AND `+window,
		append([]any{id}, wargs...)...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("focus duration: %w", err)
	}
	return total, nil
}

// TopSubjects ranks subjects by total closed focus time in rng.
func (r *FocusDurationRegister) TopSubjects(ctx context.Context, rng event.TimeRange, limit int) ([]FocusTotal, error) {
	return r.top(ctx, "uri", "subject_id", rng, limit)
}

// TopActors ranks actors by total closed focus time in rng.
func (r *FocusDurationRegister) TopActors(ctx context.Context, rng event.TimeRange, limit int) ([]FocusTotal, error) {
	return r.top(ctx, "actor", "actor_id", rng, limit)
}

func (r *FocusDurationRegister) top(ctx context.Context, table, col string, rng event.TimeRange, limit int) ([]FocusTotal, error) {
	window, wargs := rangeCondition("fd.focus_in", rng)
	rows, err := r.store.Query(ctx, `
		SELECT t.value, SUM(fd.focus_out) - SUM(fd.focus_in) AS total
		FROM focus_duration fd
		JOIN `+table+` t ON t.id = fd.`+col+`
		WHERE fd.focus_out IS NOT NULL AND `+window+`
		GROUP BY fd.`+col+`
		ORDER BY total DESC, t.value ASC
		LIMIT ?
	`, append(wargs, limitOrDefault(limit))...)
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", table, err)
	}
	defer rows.Close()

	out := []FocusTotal{}
	for rows.Next() {
		var ft FocusTotal
		if err := rows.Scan(&ft.Value, &ft.Duration); err != nil {
			return nil, fmt.Errorf("top %s: scan: %w", table, err)
		}
		out = append(out, ft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top %s: %w", table, err)
	}
	return out, nil
}

// Prune removes closed intervals that ended before the given timestamp.
func (r *FocusDurationRegister) Prune(ctx context.Context, before int64) (int64, error) {
	n, err := deleteRows(ctx, r.store, "prune focus durations",
		`DELETE FROM focus_duration WHERE focus_out IS NOT NULL AND focus_out < ?`, before)
	if err == nil && n > 0 {
		r.logger.Info("pruned focus durations", "before", before, "count", n)
	}
	return n, err
}

// rangeCondition renders a half-open range on col.
func rangeCondition(col string, rng event.TimeRange) (string, []any) {
	if rng.Bounded() {
		return "(" + col + " >= ? AND " + col + " < ?)", []any{rng.Start, rng.End}
	}
	return col + " >= ?", []any{rng.Start}
}

func deleteRows(ctx context.Context, st *store.Store, op, query string, args ...any) (int64, error) {
	var n int64
	err := st.Update(ctx, func(tx *store.Tx) error {
		res, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
