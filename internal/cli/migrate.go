package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// MigrateResult is the output of the migrate command.
type MigrateResult struct {
	Database string `json:"database"`
	Version  int    `json:"version"`
}

func (r MigrateResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "%s: schema version %d\n", r.Database, r.Version)
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Long: `Open the database, running any pending schema upgrades, and print the
resulting schema version. A database written by a newer release, or one
with no recorded version, is refused with exit code 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
	return cmd
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	e, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	v, err := st.SchemaVersion(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read schema version", err)
	}
	return e.out.Success(MigrateResult{Database: e.cfg.Database, Version: v})
}
