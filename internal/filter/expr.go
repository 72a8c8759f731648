package filter

// Expr is a filter expression.
//
// This is a sealed interface: only types in this package implement it, so
// compilers can switch over it exhaustively.
//
// Expression types:
//   - Match: field equals (or, negated, differs from) a value
//   - Prefix: field starts with (or, negated, does not start with) a value
//   - All: every child matches (AND)
//   - Any: at least one child matches (OR)
//   - Not: the child does not match
type Expr interface {
	exprNode()
}

// Match is an exact comparison against an interned value.
type Match struct {
	Field  Field
	Value  string
	Negate bool
}

func (Match) exprNode() {}

// Prefix matches values starting with Value. Only Prefixable fields accept
// it.
type Prefix struct {
	Field  Field
	Value  string
	Negate bool
}

func (Prefix) exprNode() {}

// All matches when every child matches. An empty All matches everything.
type All struct {
	Exprs []Expr
}

func (All) exprNode() {}

// Any matches when at least one child matches. An empty Any places no
// restriction.
type Any struct {
	Exprs []Expr
}

func (Any) exprNode() {}

// Not inverts its child.
type Not struct {
	Expr Expr
}

func (Not) exprNode() {}

// Eq is shorthand for a positive Match.
func Eq(f Field, value string) Match {
	return Match{Field: f, Value: value}
}

// HasPrefix is shorthand for a positive Prefix.
func HasPrefix(f Field, value string) Prefix {
	return Prefix{Field: f, Value: value}
}

// And combines expressions with All.
func And(exprs ...Expr) All {
	return All{Exprs: exprs}
}

// Or combines expressions with Any.
func Or(exprs ...Expr) Any {
	return Any{Exprs: exprs}
}
