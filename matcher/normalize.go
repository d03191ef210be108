package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CollapseSpace turns whitespace runs into single spaces and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold strips diacritics via canonical decomposition, collapses whitespace
// and case folds, so "Širvintos" and " sirvintos" compare equal.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		cases.Fold(),
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return CollapseSpace(folded)
}

// ContainsFolded reports whether target occurs in text after folding both.
func ContainsFolded(text, target string) bool {
	return strings.Contains(Fold(text), Fold(target))
}
