package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/zeitgeist/internal/maintenance"
	"github.com/roach88/zeitgeist/internal/relevance"
)

// MaintainOptions holds flags for the maintain command.
type MaintainOptions struct {
	*RootOptions
	Schedule  string
	Scheduled bool
	Retention time.Duration
}

type maintenanceReport maintenance.Report

func (r maintenanceReport) renderText(w io.Writer) {
	fmt.Fprintf(w, "focus switches pruned: %d\n", r.SwitchesPruned)
	fmt.Fprintf(w, "focus intervals pruned: %d\n", r.DurationsPruned)
	kinds := make([]string, 0, len(r.Purged))
	for k := range r.Purged {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "purged %s: %d\n", k, r.Purged[k])
	}
}

// NewMaintainCommand creates the maintain command.
func NewMaintainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MaintainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Purge unused symbols and prune old focus records",
		Long: `Prune focus records older than the retention window and purge symbols
no longer referenced by anything.

Without --schedule the work runs once. With --schedule (a cron expression
or descriptor such as @daily) it runs on that schedule until interrupted;
--scheduled uses the configured schedule.

Example:
  zeitgeist maintain
  zeitgeist maintain --schedule "0 3 * * *"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintain(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "cron schedule to run under")
	cmd.Flags().BoolVar(&opts.Scheduled, "scheduled", false, "run under the configured schedule")
	cmd.Flags().DurationVar(&opts.Retention, "retention", 0, "focus record retention (default from config)")
	cmd.MarkFlagsMutuallyExclusive("schedule", "scheduled")

	return cmd
}

func runMaintain(opts *MaintainOptions, cmd *cobra.Command) error {
	if opts.Retention < 0 {
		return NewExitError(ExitCommandError, "--retention must not be negative")
	}
	if opts.Schedule != "" {
		if _, err := maintenance.ParseSchedule(opts.Schedule); err != nil {
			return WrapExitError(ExitCommandError, "invalid --schedule", err)
		}
	}

	e, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	retention := time.Duration(e.cfg.Maintenance.FocusRetention)
	if opts.Retention > 0 {
		retention = opts.Retention
	}
	m := maintenance.New(st, relevance.New(st, relevance.WithLogger(e.logger)),
		maintenance.WithRetention(retention),
		maintenance.WithLogger(e.logger),
	)

	schedule := opts.Schedule
	if opts.Scheduled {
		schedule = e.cfg.Maintenance.Schedule
	}
	if schedule == "" {
		report, err := m.RunOnce(cmd.Context())
		if err != nil {
			return WrapExitError(ExitFailure, "maintenance failed", err)
		}
		return e.out.Success(maintenanceReport(report))
	}

	// Run until interrupted.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := maintenance.Schedule(ctx, m, schedule); err != nil {
		return WrapExitError(ExitCommandError, "failed to schedule maintenance", err)
	}
	return nil
}
