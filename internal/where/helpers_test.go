package where

import (
	"fmt"

	"github.com/roach88/zeitgeist/internal/symbol"
)

// fakeLookup resolves values from a fixed table.
type fakeLookup map[symbol.Kind]map[string]int64

func (f fakeLookup) Lookup(k symbol.Kind, value string) (int64, error) {
	if id, ok := f[k][value]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%s %q: %w", k, value, symbol.ErrNotFound)
}

func testLookup() fakeLookup {
	return fakeLookup{
		symbol.Actor:    {"app://editor.desktop": 1, "app://viewer.desktop": 2},
		symbol.Mimetype: {"text/plain": 3},
		symbol.URI:      {"doc://a.txt": 4, "doc://b.txt": 5},
		symbol.Text:     {"a.txt": 6},
	}
}
