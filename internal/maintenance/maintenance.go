// Package maintenance runs the journal's periodic housekeeping: purging
// unreferenced symbols and pruning old focus records.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/roach88/zeitgeist/internal/relevance"
	"github.com/roach88/zeitgeist/internal/store"
	"github.com/roach88/zeitgeist/internal/symbol"
)

// DefaultRetention is how long focus records are kept.
const DefaultRetention = 180 * 24 * time.Hour

// parser accepts standard 5-field expressions and descriptors like @daily.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Report summarizes one maintenance run.
type Report struct {
	Purged          map[string]int64 `json:"purged"`
	SwitchesPruned  int64            `json:"switches_pruned"`
	DurationsPruned int64            `json:"durations_pruned"`
	Cutoff          int64            `json:"cutoff"`
}

// Maintainer performs housekeeping against one store.
type Maintainer struct {
	store     *store.Store
	engine    *relevance.Engine
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithRetention sets how long focus records are kept.
func WithRetention(d time.Duration) Option {
	return func(m *Maintainer) {
		if d > 0 {
			m.retention = d
		}
	}
}

// WithClock sets the time source used to compute the prune cutoff.
func WithClock(c relevance.Clock) Option {
	return func(m *Maintainer) {
		m.now = c.Now
	}
}

// WithLogger sets the maintainer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Maintainer) {
		m.logger = l
	}
}

// New creates a Maintainer.
func New(st *store.Store, eng *relevance.Engine, opts ...Option) *Maintainer {
	m := &Maintainer{
		store:     st,
		engine:    eng,
		retention: DefaultRetention,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunOnce prunes focus records older than the retention window, then
// purges symbols nothing references any more. Pruning goes first so the
// purge sees the freed references.
func (m *Maintainer) RunOnce(ctx context.Context) (Report, error) {
	cutoff := m.now().Add(-m.retention).UnixMilli()
	report := Report{Purged: map[string]int64{}, Cutoff: cutoff}

	var err error
	report.SwitchesPruned, err = m.engine.FocusSwitches().Prune(ctx, cutoff)
	if err != nil {
		return report, err
	}
	report.DurationsPruned, err = m.engine.FocusDurations().Prune(ctx, cutoff)
	if err != nil {
		return report, err
	}

	purged, err := m.store.PurgeUnusedSymbols(ctx)
	if err != nil {
		return report, err
	}
	for _, k := range symbol.Kinds() {
		if n := purged[k]; n > 0 {
			report.Purged[k.String()] = n
		}
	}

	m.logger.Info("maintenance complete",
		"cutoff", cutoff,
		"switches_pruned", report.SwitchesPruned,
		"durations_pruned", report.DurationsPruned,
		"symbols_purged", len(report.Purged),
	)
	return report, nil
}
