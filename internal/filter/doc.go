// Package filter defines the filter expressions callers use to narrow event
// queries: exact and prefix matches on event and subject fields, combined
// with All (AND), Any (OR) and Not.
//
// Expr is a sealed interface. The where package compiles expressions into
// parameterized SQL; this package holds no SQL.
//
// Prefix matches are only permitted on a fixed set of fields (see
// Field.Prefixable). Validate rejects anything else before a query is built.
package filter
