package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/store"
)

// TagsOptions holds flags for the tags command.
type TagsOptions struct {
	*RootOptions
	Recent bool
	From   int64
	To     int64
	Limit  int
}

// TagList is the output of the tags command.
type TagList struct {
	Tags []store.TagCount `json:"tags"`
}

func (l TagList) renderText(w io.Writer) {
	if len(l.Tags) == 0 {
		fmt.Fprintln(w, "No tags found.")
		return
	}
	for _, t := range l.Tags {
		fmt.Fprintf(w, "%d\t%d\t%s\n", t.Count, t.LastUsed, t.Tag)
	}
}

// NewTagsCommand creates the tags command.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TagsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List most used or most recent tags",
		Long: `List tags used in [--from, --to), most used first, or most recently
used first with --recent. Columns are count, last use and tag.

Example:
  zeitgeist tags --limit 10
  zeitgeist tags --recent --from 1700000000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Recent, "recent", false, "order by last use instead of count")
	cmd.Flags().Int64Var(&opts.From, "from", 0, "start of range in ms (inclusive)")
	cmd.Flags().Int64Var(&opts.To, "to", 0, "end of range in ms (exclusive, 0 = unbounded)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of tags (0 = no limit)")

	return cmd
}

func runTags(opts *TagsOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 || opts.From < 0 || opts.To < 0 {
		return NewExitError(ExitCommandError, "--from, --to and --limit must not be negative")
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

	rng := event.TimeRange{Start: opts.From, End: opts.To}
	var tags []store.TagCount
	if opts.Recent {
		tags, err = st.RecentTags(cmd.Context(), rng, opts.Limit)
	} else {
		tags, err = st.MostUsedTags(cmd.Context(), rng, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "tag query failed", err)
	}
	return e.out.Success(TagList{Tags: tags})
}
