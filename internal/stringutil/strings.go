// Package stringutil provides common string manipulation utilities.
package stringutil

import (
	"strings"

	"golang.org/x/text/width"
)

// NormalizeWidth folds full-width characters to their half-width forms and
// trims surrounding whitespace. Questions typed with a Chinese IME often end
// in full-width punctuation ("？", "！") that the question patterns would
// otherwise have to enumerate.
func NormalizeWidth(s string) string {
	return strings.TrimSpace(width.Narrow.String(s))
}

// ContainsEitherFold reports whether a is a case-insensitive substring of b or
// b a case-insensitive substring of a. Used by the similar-field scan, where
// query and candidate may contain one another in either direction.
func ContainsEitherFold(a, b string) bool {
	al, bl := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(al, bl) || strings.Contains(bl, al)
}
