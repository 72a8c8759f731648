package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/zeitgeist/internal/store"
	"github.com/roach88/zeitgeist/internal/symbol"
)

// Defaults for RelatedOptions.
const (
	DefaultHorizon = 90 * 24 * time.Hour
	DefaultRadius  = time.Hour
	DefaultLimit   = 5
)

// Clock supplies the current time. The horizon of a related-items query
// ends at Now.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Ranked is one entry of a ranking.
type Ranked struct {
	URI   string `json:"uri"`
	Count int64  `json:"count"`
}

// URIs returns the URIs of a ranking in order.
func URIs(ranked []Ranked) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.URI
	}
	return out
}

// Engine computes relatedness rankings over a store.
type Engine struct {
	store     *store.Store
	clock     Clock
	logger    *slog.Logger
	switches  *FocusSwitchRegister
	durations *FocusDurationRegister
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to place the lookback horizon.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine backed by st.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.switches = &FocusSwitchRegister{store: st, logger: e.logger}
	e.durations = &FocusDurationRegister{store: st, logger: e.logger}
	return e
}

// FocusSwitches returns the focus-switch register.
func (e *Engine) FocusSwitches() *FocusSwitchRegister {
	return e.switches
}

// FocusDurations returns the focus-duration register.
func (e *Engine) FocusDurations() *FocusDurationRegister {
	return e.durations
}

// lookupURI returns the id of an interned URI. ok is false for a URI that
// was never recorded, which can have no relations.
func lookupURI(st *store.Store, uri string) (id int64, ok bool, err error) {
	id, err = st.Symbols().Lookup(symbol.URI, uri)
	if errors.Is(err, symbol.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// queryRanked runs a query yielding (uri, count) rows.
func queryRanked(ctx context.Context, st *store.Store, op, query string, args ...any) ([]Ranked, error) {
	rows, err := st.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []Ranked{}
	for rows.Next() {
		var r Ranked
		if err := rows.Scan(&r.URI, &r.Count); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
