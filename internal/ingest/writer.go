package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/relevance"
	"github.com/roach88/zeitgeist/internal/store"
)

// ErrStopped is returned by Submit once the writer no longer accepts
// batches.
var ErrStopped = errors.New("ingest: writer stopped")

// FocusChange moves focus to Subject under Actor. An empty Subject means
// focus left every document.
type FocusChange struct {
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Actor     string `json:"actor,omitempty" yaml:"actor,omitempty"`
	Subject   string `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// Batch is one unit of work from a data source. Everything in it is
// applied in a single transaction: events first, then focus switches,
// then focus changes.
type Batch struct {
	Source   string                  `json:"source,omitempty" yaml:"source,omitempty"`
	Events   []event.Event           `json:"events,omitempty" yaml:"events,omitempty"`
	Switches []relevance.FocusSwitch `json:"switches,omitempty" yaml:"switches,omitempty"`
	Focus    []FocusChange           `json:"focus,omitempty" yaml:"focus,omitempty"`
}

// Empty reports whether the batch carries nothing to write.
func (b Batch) Empty() bool {
	return len(b.Events) == 0 && len(b.Switches) == 0 && len(b.Focus) == 0
}

// Receipt reports what a batch did.
type Receipt struct {
	Token      string               `json:"token"`
	Inserted   int                  `json:"inserted"`
	Duplicates int                  `json:"duplicates"`
	Results    []store.InsertResult `json:"results"`
}

// Writer is the single-writer ingestion loop.
type Writer struct {
	store     *store.Store
	switches  *relevance.FocusSwitchRegister
	durations *relevance.FocusDurationRegister
	tokens    TokenGenerator
	queue     *jobQueue
	logger    *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithTokenGenerator replaces the UUIDv7 batch token generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(w *Writer) {
		w.tokens = g
	}
}

// WithLogger sets the writer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = l
	}
}

// NewWriter creates a writer over st. Focus data goes through the
// registers of eng.
func NewWriter(st *store.Store, eng *relevance.Engine, opts ...Option) *Writer {
	w := &Writer{
		store:     st,
		switches:  eng.FocusSwitches(),
		durations: eng.FocusDurations(),
		tokens:    UUIDv7Generator{},
		queue:     newJobQueue(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit enqueues a batch and waits for the writer to apply it.
// Thread-safe: may be called from any goroutine.
//
// If ctx ends first, Submit returns ctx.Err(); the batch may still be
// applied later.
func (w *Writer) Submit(ctx context.Context, b Batch) (Receipt, error) {
	j := &job{batch: b, token: w.tokens.Generate(), done: make(chan outcome, 1)}
	if !w.queue.Enqueue(j) {
		return Receipt{}, ErrStopped
	}

	select {
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case out := <-j.done:
		return out.receipt, out.err
	}
}

// Run applies queued batches until ctx is cancelled or Stop is called.
// Batches queued before Stop are still applied; batches still queued when
// ctx is cancelled fail with ErrStopped.
//
// CRITICAL: Must be called from exactly ONE goroutine.
func (w *Writer) Run(ctx context.Context) error {
	w.logger.Info("ingest writer starting")

	for {
		if j, ok := w.queue.TryDequeue(); ok {
			w.process(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			w.logger.Info("ingest writer stopping: context cancelled")
			w.queue.Close()
			for _, j := range w.queue.Drain() {
				j.done <- outcome{err: ErrStopped}
			}
			return ctx.Err()

		case <-w.queue.Wait():
			// The signal channel is closed once the queue is; an empty
			// closed queue ends the loop.
			if w.queue.Len() == 0 && w.queue.Closed() {
				w.logger.Info("ingest writer stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the queued batches are applied.
func (w *Writer) Stop() {
	w.queue.Close()
}

// process applies one batch.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (w *Writer) process(ctx context.Context, j *job) {
	receipt, err := w.apply(ctx, j)
	if err != nil {
		w.logger.Error("batch failed",
			"token", j.token,
			"source", j.batch.Source,
			"error", err,
		)
	} else {
		w.logger.Debug("batch applied",
			"token", j.token,
			"source", j.batch.Source,
			"inserted", receipt.Inserted,
			"duplicates", receipt.Duplicates,
		)
	}
	j.done <- outcome{receipt: receipt, err: err}
}

func (w *Writer) apply(ctx context.Context, j *job) (Receipt, error) {
	receipt := Receipt{Token: j.token, Results: []store.InsertResult{}}
	if j.batch.Empty() {
		return receipt, nil
	}

	err := w.store.Update(ctx, func(tx *store.Tx) error {
		for i, ev := range j.batch.Events {
			res, err := tx.InsertEvent(ctx, ev)
			if err != nil {
				return fmt.Errorf("event[%d]: %w", i, err)
			}
			receipt.Results = append(receipt.Results, res)
		}
		for i, sw := range j.batch.Switches {
			if err := w.switches.RegisterTx(ctx, tx, sw); err != nil {
				return fmt.Errorf("switch[%d]: %w", i, err)
			}
		}
		for i, fc := range j.batch.Focus {
			if err := w.durations.FocusChangeTx(ctx, tx, fc.Timestamp, fc.Actor, fc.Subject); err != nil {
				return fmt.Errorf("focus[%d]: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return Receipt{Token: j.token}, fmt.Errorf("batch %s: %w", j.token, err)
	}

	for _, res := range receipt.Results {
		if res.Status == store.StatusDuplicate {
			receipt.Duplicates++
		} else {
			receipt.Inserted++
		}
	}
	return receipt, nil
}
