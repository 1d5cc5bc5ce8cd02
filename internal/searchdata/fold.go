package searchdata

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the case-folded, NFC normalized form of s.
// Two strings match case-insensitively when their folded forms are equal.
func Fold(s string) string {
	// A Caser keeps state, so each call gets its own
	return cases.Fold().String(norm.NFC.String(s))
}
