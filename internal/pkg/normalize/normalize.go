// Package normalize canonicalizes team names and identifiers scraped
// from the match listing. All functions are total: bad input yields an
// empty string, never an error.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TeamName canonicalizes a raw team label: trims, collapses internal
// whitespace runs, drops a leading "Team " qualifier and title-cases
// each word. Idempotent.
func TeamName(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	// Strip every leading qualifier, not just the first, so the
	// result is a fixed point of this function.
	for len(fields) > 1 && strings.EqualFold(fields[0], "team") {
		fields = fields[1:]
	}
	for i, f := range fields {
		fields[i] = titleWord(f)
	}
	return strings.Join(fields, " ")
}

// Slug reduces a name to [a-z0-9] for derived identifiers.
func Slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func titleWord(w string) string {
	lower := strings.ToLower(w)
	r, size := utf8.DecodeRuneInString(lower)
	if size == 0 {
		return lower
	}
	return string(unicode.ToUpper(r)) + lower[size:]
}
