// Package where builds parameterized SQL predicates over the event_view
// view.
//
// A Clause is a list of predicate fragments joined by one relation (AND or
// OR, never mixed) with optional overall negation. Clauses are folded into
// each other with Extend. A clause that is statically known to match
// nothing (for example a filter on a mimetype that was never recorded)
// carries a no-result mark, and an AND clause extended with it drops its
// conditions so the caller can skip the query entirely.
//
// Prefix matches are rewritten from GLOB 'p*' into the half-open range
// value >= p AND value < UpperBound(p), which SQLite answers from the
// unique index on the symbol table's value column.
//
// All values are bound as parameters, never interpolated.
package where
