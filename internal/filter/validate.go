package filter

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPrefix is returned when a prefix match targets a field that
// does not support one.
var ErrUnsupportedPrefix = errors.New("prefix search not supported")

// Validate checks an expression tree before it is compiled. It rejects nil
// nodes, unknown fields and prefix matches outside the allow-list.
//
// Validate is a pure function with no side effects.
func Validate(expr Expr) error {
	return validate(expr, "filter")
}

func validate(expr Expr, path string) error {
	switch e := expr.(type) {
	case nil:
		return fmt.Errorf("%s: nil expression", path)
	case Match:
		if !e.Field.Valid() {
			return fmt.Errorf("%s: unknown field %d", path, int(e.Field))
		}
	case *Match:
		if e == nil {
			return fmt.Errorf("%s: nil expression", path)
		}
		return validate(*e, path)
	case Prefix:
		if !e.Field.Valid() {
			return fmt.Errorf("%s: unknown field %d", path, int(e.Field))
		}
		if !e.Field.Prefixable() {
			return fmt.Errorf("%s: %w on %s", path, ErrUnsupportedPrefix, e.Field)
		}
	case *Prefix:
		if e == nil {
			return fmt.Errorf("%s: nil expression", path)
		}
		return validate(*e, path)
	case All:
		for i, child := range e.Exprs {
			if err := validate(child, fmt.Sprintf("%s.all[%d]", path, i)); err != nil {
				return err
			}
		}
	case Any:
		for i, child := range e.Exprs {
			if err := validate(child, fmt.Sprintf("%s.any[%d]", path, i)); err != nil {
				return err
			}
		}
	case Not:
		return validate(e.Expr, path+".not")
	default:
		return fmt.Errorf("%s: unsupported expression type %T", path, expr)
	}
	return nil
}
