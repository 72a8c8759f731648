package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/filter"
	"github.com/roach88/zeitgeist/internal/store"
	"github.com/roach88/zeitgeist/internal/where"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	From    int64
	To      int64
	Filters []string
	Desc    bool
	Limit   int
	Storage string
}

// EventList is the output of the find command.
type EventList struct {
	Events []event.Event `json:"events"`
}

func (l EventList) renderText(w io.Writer) {
	if len(l.Events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}
	for _, ev := range l.Events {
		actor := ev.Actor
		if actor == "" {
			actor = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", ev.ID, ev.Timestamp, actor, strings.Join(ev.SubjectURIs(), " "))
	}
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find events in a time range",
		Long: `Find events whose timestamp falls in [--from, --to).

Filters take the form field=term and are AND-ed. A term ending in "*" is a
prefix match and a leading "!" negates it.

Fields: interpretation, manifestation, actor, origin, subject_uri,
subject_current_uri, subject_interpretation, subject_manifestation,
subject_origin, subject_mimetype, subject_text, subject_storage.

Example:
  zeitgeist find --from 1700000000000 --filter 'subject_uri=file:///home/*'
  zeitgeist find --filter 'actor=!app://browser.desktop' --desc --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.From, "from", 0, "start of range in ms (inclusive)")
	cmd.Flags().Int64Var(&opts.To, "to", 0, "end of range in ms (exclusive, 0 = unbounded)")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "field=term filter (repeatable)")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "newest first")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 = no limit)")
	cmd.Flags().StringVar(&opts.Storage, "storage", "any", "subject storage state (any|available|unavailable)")

	return cmd
}

func runFind(opts *FindOptions, cmd *cobra.Command) error {
	req, expr, err := opts.request()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid find arguments", err)
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

	if expr != nil {
		req.Where, err = st.Compile(expr)
		if err != nil {
			if where.IsUnsupportedFilter(err) {
				return WrapExitError(ExitCommandError, "unsupported filter", err)
			}
			return WrapExitError(ExitFailure, "failed to compile filter", err)
		}
	}

	cur, err := st.FindEvents(cmd.Context(), req)
	if err != nil {
		return WrapExitError(ExitFailure, "find failed", err)
	}
	events, err := store.Collect(cur)
	if err != nil {
		return WrapExitError(ExitFailure, "find failed", err)
	}
	return e.out.Success(EventList{Events: events})
}

// request validates the flags and builds the store request. The filter is
// returned separately because compiling it needs an open store.
func (o *FindOptions) request() (store.FindRequest, filter.Expr, error) {
	req := store.FindRequest{
		Range: event.TimeRange{Start: o.From, End: o.To},
		Limit: o.Limit,
	}
	if o.From < 0 || o.To < 0 {
		return req, nil, fmt.Errorf("--from and --to must not be negative")
	}
	if o.To != 0 && o.To <= o.From {
		return req, nil, fmt.Errorf("empty range [%d, %d)", o.From, o.To)
	}
	if o.Limit < 0 {
		return req, nil, fmt.Errorf("--limit must not be negative")
	}
	if o.Desc {
		req.Order = event.OrderDescending
	}

	switch o.Storage {
	case "any", "":
	case "available":
		req.StorageState = event.StorageAvailable
	case "unavailable":
		req.StorageState = event.StorageUnavailable
	default:
		return req, nil, fmt.Errorf("unknown storage state %q", o.Storage)
	}

	if len(o.Filters) == 0 {
		return req, nil, nil
	}
	terms := make([]filter.Expr, len(o.Filters))
	for i, f := range o.Filters {
		expr, err := filter.ParseAssignment(f)
		if err != nil {
			return req, nil, err
		}
		terms[i] = expr
	}
	if len(terms) == 1 {
		return req, terms[0], nil
	}
	return req, filter.And(terms...), nil
}
