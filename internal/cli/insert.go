package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/zeitgeist/internal/importer"
	"github.com/roach88/zeitgeist/internal/ingest"
	"github.com/roach88/zeitgeist/internal/relevance"
)

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions

	// Tokens allows overriding the batch token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens ingest.TokenGenerator
}

// FileReceipt reports one imported file.
type FileReceipt struct {
	File       string `json:"file"`
	Source     string `json:"source"`
	Token      string `json:"token"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
}

// InsertResult is the output of the insert command.
type InsertResult struct {
	Files      []FileReceipt `json:"files"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
}

func (r InsertResult) renderText(w io.Writer) {
	for _, f := range r.Files {
		fmt.Fprintf(w, "%s: %d inserted, %d duplicate (batch %s)\n", f.File, f.Inserted, f.Duplicates, f.Token)
	}
	fmt.Fprintf(w, "total: %d inserted, %d duplicate\n", r.Inserted, r.Duplicates)
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert <file>...",
		Short: "Insert events from batch files",
		Long: `Insert events from JSON, YAML or CUE batch files.

Every file is validated against the batch schema before anything is
written, then applied as one atomic batch. Events already in the journal
are reported as duplicates.

Example:
  zeitgeist insert events.json
  zeitgeist insert --db /tmp/j.sqlite editor.yaml browser.cue`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(opts, args, cmd)
		},
	}
	return cmd
}

func runInsert(opts *InsertOptions, files []string, cmd *cobra.Command) error {
	e, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	// Validate every file before touching the database.
	batches := make([]*importer.Batch, len(files))
	for i, f := range files {
		b, err := importer.Load(f)
		if err != nil {
			_ = e.out.Error(importer.CodeOf(err), err.Error(), map[string]string{"file": f})
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid batch file %s", f), err)
		}
		batches[i] = b
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	writerOpts := []ingest.Option{ingest.WithLogger(e.logger)}
	if opts.Tokens != nil {
		writerOpts = append(writerOpts, ingest.WithTokenGenerator(opts.Tokens))
	}
	eng := relevance.New(st, relevance.WithLogger(e.logger))
	w := ingest.NewWriter(st, eng, writerOpts...)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	result := InsertResult{Files: make([]FileReceipt, 0, len(batches))}
	var submitErr error
	for _, b := range batches {
		receipt, err := w.Submit(ctx, ingest.Batch{Source: b.Source, Events: b.Events})
		if err != nil {
			submitErr = WrapExitError(ExitFailure, fmt.Sprintf("failed to insert %s", b.Path), err)
			break
		}
		result.Files = append(result.Files, FileReceipt{
			File:       b.Path,
			Source:     b.Source,
			Token:      receipt.Token,
			Inserted:   receipt.Inserted,
			Duplicates: receipt.Duplicates,
		})
		result.Inserted += receipt.Inserted
		result.Duplicates += receipt.Duplicates
	}
	w.Stop()
	if err := <-done; err != nil && submitErr == nil {
		submitErr = WrapExitError(ExitFailure, "ingest writer failed", err)
	}
	if submitErr != nil {
		return submitErr
	}

	return e.out.Success(result)
}
