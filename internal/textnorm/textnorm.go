// Package textnorm cleans extracted text before it is compared or emitted.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Clean applies NFKC normalization, drops control characters and collapses
// runs of whitespace into single spaces.
func Clean(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Key returns the comparison key used for duplicate detection:
// cleaned, lower-cased text.
func Key(s string) string {
	return strings.ToLower(Clean(s))
}

// Words splits cleaned text into whitespace-separated words.
func Words(s string) []string {
	return strings.Fields(Clean(s))
}
