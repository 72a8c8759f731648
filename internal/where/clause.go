package where

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/zeitgeist/internal/symbol"
)

// Relation joins the conditions of one clause.
type Relation int

const (
	And Relation = iota
	Or
)

func (r Relation) String() string {
	if r == Or {
		return "OR"
	}
	return "AND"
}

// Lookuper resolves a value to its interned id without inserting it.
// *symbol.Cache satisfies it.
type Lookuper interface {
	Lookup(k symbol.Kind, value string) (int64, error)
}

// Clause is a set of SQL predicate fragments with bound arguments.
type Clause struct {
	relation   Relation
	negate     bool
	conditions []string
	args       []any
	noResult   bool
}

// New returns an empty clause. An empty clause places no restriction.
func New(rel Relation, negate bool) *Clause {
	return &Clause{relation: rel, negate: negate}
}

// Relation returns the clause's relation.
func (c *Clause) Relation() Relation {
	return c.relation
}

// Negated reports whether the rendered clause is wrapped in NOT.
func (c *Clause) Negated() bool {
	return c.negate
}

// Len returns the number of conditions.
func (c *Clause) Len() int {
	return len(c.conditions)
}

// Add appends a predicate fragment and its arguments. An empty fragment is
// ignored, as is anything added to an AND clause already known to match
// nothing.
func (c *Clause) Add(fragment string, args ...any) {
	if fragment == "" {
		return
	}
	if c.relation == And && c.noResult {
		return
	}
	c.conditions = append(c.conditions, fragment)
	c.args = append(c.args, args...)
}

// RegisterNoResult marks the clause as matching nothing. Under AND this
// discards every accumulated condition.
func (c *Clause) RegisterNoResult() {
	if c.relation == And {
		c.clear()
	}
	c.noResult = true
}

func (c *Clause) clear() {
	c.conditions = nil
	c.args = nil
}

// MayHaveResults is false only when the clause has no conditions and was
// marked as matching nothing. An empty, unmarked clause matches everything.
func (c *Clause) MayHaveResults() bool {
	return len(c.conditions) > 0 || !c.noResult
}

// Extend folds other into c using c's relation. If other cannot match, c is
// marked no-result, and an AND clause drops its own conditions with it.
func (c *Clause) Extend(other *Clause) {
	if other == nil {
		return
	}
	if !other.MayHaveResults() {
		c.RegisterNoResult()
		return
	}
	c.Add(other.SQL(), other.args...)
}

// SQL renders the clause, or "" when it has no conditions.
func (c *Clause) SQL() string {
	if len(c.conditions) == 0 {
		return ""
	}
	sep := " " + c.relation.String() + " "
	open := "("
	if c.negate {
		open = "NOT ("
	}
	return open + strings.Join(c.conditions, sep) + ")"
}

// Args returns the bound arguments in placeholder order.
func (c *Clause) Args() []any {
	out := make([]any, len(c.args))
	copy(out, c.args)
	return out
}

func (c *Clause) String() string {
	return fmt.Sprintf("%s %v", c.SQL(), c.args)
}

// AddTextCondition adds a comparison on a symbol column.
//
// With prefix set, the condition selects ids from the column's symbol table
// whose value lies in [value, UpperBound(value)). Only prefixable columns
// accept this; others return *UnsupportedFilterError. A negated prefix also
// matches rows where the column is NULL.
//
// Without prefix, value is resolved through lk and compared by id. A value
// that was never interned cannot match: a positive condition marks the
// clause no-result and a negated one adds nothing.
func (c *Clause) AddTextCondition(lk Lookuper, col Column, value string, prefix, negate bool) error {
	if prefix {
		if !col.Field.Prefixable() {
			return &UnsupportedFilterError{Field: col.Field}
		}
		c.addPrefix(col, value, negate)
		return nil
	}

	id, err := lk.Lookup(col.Kind, value)
	if errors.Is(err, symbol.ErrNotFound) {
		if !negate {
			c.RegisterNoResult()
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup %s: %w", col.Field, err)
	}

	op := "="
	if negate {
		op = "!="
	}
	c.Add(fmt.Sprintf("%s %s ?", col.View, op), id)
	return nil
}

func (c *Clause) addPrefix(col Column, value string, negate bool) {
	var rng string
	var args []any
	if boundedAbove(value) {
		rng = "(value >= ? AND value < ?)"
		args = []any{value, UpperBound(value)}
	} else {
		rng = "(value >= ?)"
		args = []any{value}
	}

	not := ""
	if negate {
		not = "NOT "
	}
	sql := fmt.Sprintf("%s %sIN (SELECT id FROM %s WHERE %s)", col.View, not, col.Kind.Table(), rng)
	if negate {
		sql = fmt.Sprintf("(%s OR %s IS NULL)", sql, col.View)
	}
	c.Add(sql, args...)
}
