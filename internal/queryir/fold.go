package queryir

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s in NFC under full Unicode case folding, so precomposed
// and decomposed accents compare equal.
//
// A new Caser is built per call: cases.Caser is stateful and not safe for
// concurrent use.
func Fold(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}

// FoldContains reports whether needle occurs in haystack, ignoring case.
// An empty needle matches every haystack.
func FoldContains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(haystack), Fold(needle))
}
