package where

import (
	"fmt"

	"github.com/roach88/zeitgeist/internal/filter"
)

// Compile folds a filter expression into a Clause. The expression is
// validated first, so an unsupported prefix is rejected before any SQL is
// built. A nil expression compiles to an empty clause.
func Compile(expr filter.Expr, lk Lookuper) (*Clause, error) {
	if expr == nil {
		return New(And, false), nil
	}
	if err := filter.Validate(expr); err != nil {
		return nil, err
	}
	return compile(expr, lk)
}

func compile(expr filter.Expr, lk Lookuper) (*Clause, error) {
	switch e := expr.(type) {
	case filter.Match:
		return compileLeaf(lk, e.Field, e.Value, false, e.Negate)
	case *filter.Match:
		return compileLeaf(lk, e.Field, e.Value, false, e.Negate)
	case filter.Prefix:
		return compileLeaf(lk, e.Field, e.Value, true, e.Negate)
	case *filter.Prefix:
		return compileLeaf(lk, e.Field, e.Value, true, e.Negate)
	case filter.All:
		return compileGroup(lk, And, e.Exprs)
	case filter.Any:
		return compileGroup(lk, Or, e.Exprs)
	case filter.Not:
		inner, err := compile(e.Expr, lk)
		if err != nil {
			return nil, err
		}
		return invert(inner), nil
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

func compileLeaf(lk Lookuper, f filter.Field, value string, prefix, negate bool) (*Clause, error) {
	col, err := ColumnFor(f)
	if err != nil {
		return nil, err
	}
	c := New(And, false)
	if err := c.AddTextCondition(lk, col, value, prefix, negate); err != nil {
		return nil, err
	}
	return c, nil
}

func compileGroup(lk Lookuper, rel Relation, exprs []filter.Expr) (*Clause, error) {
	c := New(rel, false)
	sawNoResult := false
	for _, child := range exprs {
		sub, err := compile(child, lk)
		if err != nil {
			return nil, err
		}
		if rel == Or {
			// A branch that matches everything makes the whole OR match
			// everything.
			if sub.Len() == 0 && sub.MayHaveResults() {
				return New(And, false), nil
			}
			if !sub.MayHaveResults() {
				sawNoResult = true
				continue
			}
		}
		c.Extend(sub)
	}
	if rel == Or && sawNoResult && c.Len() == 0 {
		c.RegisterNoResult()
	}
	return c, nil
}

// invert negates a compiled clause. A clause that matches nothing becomes
// one that matches everything and vice versa.
func invert(c *Clause) *Clause {
	switch {
	case !c.MayHaveResults():
		return New(And, false)
	case c.Len() == 0:
		out := New(And, false)
		out.RegisterNoResult()
		return out
	default:
		c.negate = !c.negate
		return c
	}
}
