package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	IDs []int64
	URI string
}

// DeleteResult is the output of the delete command.
type DeleteResult struct {
	Deleted int64 `json:"deleted"`
}

func (r DeleteResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "%d event(s) deleted\n", r.Deleted)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete (--id N... | --uri URI)",
		Short: "Delete events",
		Long: `Delete events by id, or every event with a subject at a URI.

Symbols stay in the journal until "zeitgeist maintain" purges them.

Exit codes:
  0 - At least one event deleted
  1 - Nothing matched
  2 - Command error

Example:
  zeitgeist delete --id 12 --id 13
  zeitgeist delete --uri file:///home/user/secret.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, cmd)
		},
	}

	cmd.Flags().Int64SliceVar(&opts.IDs, "id", nil, "event id (repeatable)")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "delete every event with a subject at this URI")
	cmd.MarkFlagsMutuallyExclusive("id", "uri")
	cmd.MarkFlagsOneRequired("id", "uri")

	return cmd
}

func runDelete(opts *DeleteOptions, cmd *cobra.Command) error {
	e, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var n int64
	if opts.URI != "" {
		n, err = st.DeleteBySubject(cmd.Context(), opts.URI)
	} else {
		n, err = st.DeleteEvents(cmd.Context(), opts.IDs...)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "delete failed", err)
	}

	if err := e.out.Success(DeleteResult{Deleted: n}); err != nil {
		return err
	}
	if n == 0 {
		return NewExitError(ExitFailure, "no events matched")
	}
	return nil
}
