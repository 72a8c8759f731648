package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/relevance"
)

// RelatedOptions holds flags for the related command.
type RelatedOptions struct {
	*RootOptions
	By      string // "time" | "tags" | "focus"
	Limit   int
	Radius  time.Duration
	Horizon time.Duration
}

// RelatedResult is the output of the related command.
type RelatedResult struct {
	URI   string             `json:"uri"`
	By    string             `json:"by"`
	Items []relevance.Ranked `json:"items"`
}

func (r RelatedResult) renderText(w io.Writer) {
	if len(r.Items) == 0 {
		fmt.Fprintf(w, "Nothing related to %s by %s.\n", r.URI, r.By)
		return
	}
	for _, it := range r.Items {
		fmt.Fprintf(w, "%d\t%s\n", it.Count, it.URI)
	}
}

// NewRelatedCommand creates the related command.
func NewRelatedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RelatedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "related <uri>",
		Short: "List items related to a URI",
		Long: `List items related to a URI, strongest first.

  time   used within --radius of the URI during the last --horizon
  tags   sharing tags with the URI
  focus  switched to or from the URI

Unset --limit, --radius and --horizon take the configured defaults.

Example:
  zeitgeist related file:///home/user/report.odt
  zeitgeist related --by tags --limit 10 file:///home/user/report.odt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelated(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.By, "by", "time", "relation (time|tags|focus)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of items")
	cmd.Flags().DurationVar(&opts.Radius, "radius", 0, "co-occurrence window half-width")
	cmd.Flags().DurationVar(&opts.Horizon, "horizon", 0, "how far back to look for the URI")

	return cmd
}

func runRelated(opts *RelatedOptions, uri string, cmd *cobra.Command) error {
	if opts.Limit < 0 || opts.Radius < 0 || opts.Horizon < 0 {
		return NewExitError(ExitCommandError, "--limit, --radius and --horizon must not be negative")
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

	eng := relevance.New(st, relevance.WithLogger(e.logger))
	ro := e.cfg.RelatedOptions()
	if opts.Limit > 0 {
		ro.Limit = opts.Limit
	}
	if opts.Radius > 0 {
		ro.Radius = opts.Radius
	}
	if opts.Horizon > 0 {
		ro.Horizon = opts.Horizon
	}

	ctx := cmd.Context()
	var items []relevance.Ranked
	switch opts.By {
	case "time":
		items, err = eng.RelatedItems(ctx, uri, ro)
	case "tags":
		items, err = eng.ItemsRelatedByTags(ctx, uri, ro.Limit)
	case "focus":
		items, err = eng.FocusSwitches().Related(ctx, uri, event.Always(), ro.Limit)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --by %q: must be one of time, tags, focus", opts.By))
	}
	if err != nil {
		return WrapExitError(ExitFailure, "related query failed", err)
	}

	return e.out.Success(RelatedResult{URI: uri, By: opts.By, Items: items})
}
