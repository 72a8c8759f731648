package symbol

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Lookup when a value has never been interned.
// Query builders use it to detect filters that cannot match anything.
var ErrNotFound = errors.New("symbol not found")

// ConsistencyError reports an id that this process never handed out.
// Resolve panics with it: reaching one means the cache and the database
// have diverged, which is a bug in the caller.
type ConsistencyError struct {
	Kind Kind
	ID   int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("symbol: unknown %s id %d", e.Kind, e.ID)
}

// IsConsistencyError reports whether err is a ConsistencyError.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
