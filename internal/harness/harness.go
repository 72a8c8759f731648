package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/zeitgeist/internal/ingest"
	"github.com/roach88/zeitgeist/internal/relevance"
	"github.com/roach88/zeitgeist/internal/store"
	"github.com/roach88/zeitgeist/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios against a private store with a fixed clock and
// sequential batch tokens.
type Harness struct {
	store  *store.Store
	engine *relevance.Engine
	writer *ingest.Writer
	clock  *testutil.ManualClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh database in a temp directory
//  2. Write events and focus data as one ingest batch
//  3. Run every check and compare it with its expectation
//
// Check mismatches are reported in the result; only failures to set up or
// query the journal are returned as errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "zeitgeist-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios

	st, err := store.Open(filepath.Join(dir, "journal.sqlite"), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewManualClock(scenario.Now)
	eng := relevance.New(st, relevance.WithClock(clock), relevance.WithLogger(logger))

	h := &Harness{
		store:  st,
		engine: eng,
		writer: ingest.NewWriter(st, eng,
			ingest.WithTokenGenerator(testutil.NewSequenceTokenGenerator("scenario")),
			ingest.WithLogger(logger),
		),
		clock:  clock,
		logger: logger,
	}

	result := NewResult()
	if err := h.setup(ctx, scenario, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	for i, c := range scenario.Checks {
		out, err := h.runCheck(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Label(i), err)
		}
		result.Checks = append(result.Checks, out.result)
		if failure := out.compare(c); failure != nil {
			failure.Check = c.Label(i)
			result.AddError(failure.Error())
		}
	}
	return result, nil
}

// setup submits the scenario's events and focus data as one batch through
// the ingest writer, then stops it.
func (h *Harness) setup(ctx context.Context, scenario *Scenario, result *Result) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.writer.Run(runCtx) }()

	receipt, err := h.writer.Submit(ctx, ingest.Batch{
		Source:   scenario.Name,
		Events:   scenario.Events,
		Switches: scenario.Focus.Switches,
		Focus:    scenario.Focus.Changes,
	})
	h.writer.Stop()
	if runErr := <-done; runErr != nil && err == nil {
		err = runErr
	}
	if err != nil {
		return err
	}

	result.Batch = BatchReport{
		Token:      receipt.Token,
		Inserted:   receipt.Inserted,
		Duplicates: receipt.Duplicates,
	}
	h.logger.Info("scenario setup completed",
		"scenario", scenario.Name,
		"token", receipt.Token,
		"inserted", receipt.Inserted,
	)
	return nil
}
