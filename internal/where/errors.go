package where

import (
	"errors"
	"fmt"

	"github.com/roach88/zeitgeist/internal/filter"
)

// UnsupportedFilterError is returned when a prefix condition targets a
// column outside the prefix allow-list. It is raised before any SQL is
// built.
type UnsupportedFilterError struct {
	Field filter.Field
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("prefix search not supported on %s", e.Field)
}

// Unwrap lets errors.Is match filter.ErrUnsupportedPrefix.
func (e *UnsupportedFilterError) Unwrap() error {
	return filter.ErrUnsupportedPrefix
}

// IsUnsupportedFilter reports whether err is an UnsupportedFilterError or
// wraps filter.ErrUnsupportedPrefix.
func IsUnsupportedFilter(err error) bool {
	var ufe *UnsupportedFilterError
	return errors.As(err, &ufe) || errors.Is(err, filter.ErrUnsupportedPrefix)
}
