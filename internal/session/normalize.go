package session

import (
	"regexp"
	"strings"
)

// optionPrefix matches a rendered option label such as "A. ", "B、" or "C)".
var optionPrefix = regexp.MustCompile(`^[A-Z][.、)] ?`)

// Normalize canonicalizes an answer or option for comparison: it drops a leading
// option label, collapses whitespace runs, trims and lower-cases.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = optionPrefix.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// Equivalent reports whether two answers are equal after normalization.
func Equivalent(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
