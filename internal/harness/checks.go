package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/filter"
	"github.com/roach88/zeitgeist/internal/relevance"
	"github.com/roach88/zeitgeist/internal/store"
)

// CheckError is reported when a check's answer differs from its
// expectation.
type CheckError struct {
	Check    string // Check label
	Type     string // Check type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Check failed: %s (%s)\n", e.Check, e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// checkOutput is what one check produced, in both snapshot and comparable
// form.
type checkOutput struct {
	result     CheckResult
	values     []string // URIs or tags
	timestamps []int64
	duration   int64
}

func (h *Harness) runCheck(ctx context.Context, c Check) (*checkOutput, error) {
	out := &checkOutput{result: CheckResult{Type: c.Type, Name: c.Name}}

	switch c.Type {
	case CheckFind:
		events, err := h.find(ctx, c)
		if err != nil {
			return nil, err
		}
		tree := make([]any, len(events))
		for i, ev := range events {
			tree[i] = ev.ToCanonical()
			out.timestamps = append(out.timestamps, ev.Timestamp)
		}
		out.result.Output = tree

	case CheckRelated:
		ranked, err := h.engine.RelatedItems(ctx, c.URI, relevance.RelatedOptions{
			Horizon: time.Duration(c.Horizon),
			Radius:  time.Duration(c.Radius),
			Limit:   c.Limit,
		})
		if err != nil {
			return nil, err
		}
		out.setRanked(ranked)

	case CheckRelatedByTags:
		ranked, err := h.engine.ItemsRelatedByTags(ctx, c.URI, c.Limit)
		if err != nil {
			return nil, err
		}
		out.setRanked(ranked)

	case CheckFocusRelated:
		ranked, err := h.engine.FocusSwitches().Related(ctx, c.URI, c.Range(), c.Limit)
		if err != nil {
			return nil, err
		}
		out.setRanked(ranked)

	case CheckMostUsedTags:
		tags, err := h.store.MostUsedTags(ctx, c.Range(), c.Limit)
		if err != nil {
			return nil, err
		}
		tree := make([]any, len(tags))
		for i, tc := range tags {
			tree[i] = map[string]any{"tag": tc.Tag, "count": tc.Count, "last_used": tc.LastUsed}
			out.values = append(out.values, tc.Tag)
		}
		out.result.Output = tree

	case CheckDuration:
		d, err := h.engine.FocusDurations().Duration(ctx, c.URI, c.Range())
		if err != nil {
			return nil, err
		}
		out.duration = d
		out.result.Output = d

	default:
		return nil, fmt.Errorf("unknown check type %q", c.Type)
	}
	return out, nil
}

func (h *Harness) find(ctx context.Context, c Check) ([]event.Event, error) {
	order, err := event.ParseOrder(c.Order)
	if err != nil {
		return nil, err
	}
	req := store.FindRequest{Range: c.Range(), Order: order, Limit: c.Limit}

	if len(c.Filter) > 0 {
		terms := make([]filter.Expr, len(c.Filter))
		for i, f := range c.Filter {
			if terms[i], err = filter.ParseAssignment(f); err != nil {
				return nil, err
			}
		}
		if req.Where, err = h.store.Compile(filter.And(terms...)); err != nil {
			return nil, err
		}
	}

	cur, err := h.store.FindEvents(ctx, req)
	if err != nil {
		return nil, err
	}
	return store.Collect(cur)
}

func (o *checkOutput) setRanked(ranked []relevance.Ranked) {
	tree := make([]any, len(ranked))
	for i, r := range ranked {
		tree[i] = map[string]any{"uri": r.URI, "count": r.Count}
	}
	o.result.Output = tree
	o.values = relevance.URIs(ranked)
}

// compare reports the first mismatch against c's expectations, or nil.
func (o *checkOutput) compare(c Check) *CheckError {
	switch {
	case c.Expect != nil && !slices.Equal(nonNil(o.values), c.Expect):
		return &CheckError{
			Type:     c.Type,
			Expected: fmt.Sprintf("%v", c.Expect),
			Actual:   fmt.Sprintf("%v", nonNil(o.values)),
		}
	case c.ExpectTimestamps != nil && !slices.Equal(nonNil(o.timestamps), c.ExpectTimestamps):
		return &CheckError{
			Type:     c.Type,
			Expected: fmt.Sprintf("timestamps %v", c.ExpectTimestamps),
			Actual:   fmt.Sprintf("timestamps %v", nonNil(o.timestamps)),
		}
	case c.ExpectDuration != nil && o.duration != *c.ExpectDuration:
		return &CheckError{
			Type:     c.Type,
			Expected: fmt.Sprintf("%dms", *c.ExpectDuration),
			Actual:   fmt.Sprintf("%dms", o.duration),
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
