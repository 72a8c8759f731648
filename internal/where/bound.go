package where

import "unicode/utf8"

// maxRune is the largest Unicode code point.
const maxRune = utf8.MaxRune

// UpperBound returns the smallest string greater than every string that
// starts with prefix. The last code point is incremented; a last code point
// of U+10FFFF cannot be incremented, so it is dropped and the remainder is
// incremented instead. The empty prefix yields the single character
// U+10FFFF.
//
// For a prefix made only of U+10FFFF the result does not exceed the prefix;
// callers must then use an open-ended range.
func UpperBound(prefix string) string {
	if prefix == "" {
		return string(maxRune)
	}
	last, size := utf8.DecodeLastRuneInString(prefix)
	head := prefix[:len(prefix)-size]
	if last == maxRune {
		return UpperBound(head)
	}
	next := last + 1
	// Surrogate code points cannot be encoded in UTF-8.
	if next >= 0xD800 && next <= 0xDFFF {
		next = 0xE000
	}
	return head + string(next)
}

// boundedAbove reports whether UpperBound(prefix) is usable as an exclusive
// upper limit for prefix.
func boundedAbove(prefix string) bool {
	return UpperBound(prefix) > prefix
}
