// Package filename derives safe download names for documents.
package filename

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/inkpad/internal/models"
)

// Extension is appended to every sanitized name.
const Extension = ".md"

// MaxStemLength bounds the name without its extension, in runes.
const MaxStemLength = 60

const unsafeChars = `\/:*?"<>|`

// Sanitize turns user input into a path-safe markdown filename.
//
// Unsafe characters, whitespace and control characters are removed, one
// trailing ".md" is stripped, leading dots are dropped and the stem is
// truncated to MaxStemLength runes. An empty stem becomes "Untitled".
// The result always ends in ".md" and Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.TrimSpace(raw) {
		if r == utf8.RuneError || unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(unsafeChars, r) {
			continue
		}
		b.WriteRune(r)
	}

	stem := strings.TrimSuffix(b.String(), Extension)
	stem = strings.TrimLeft(stem, ".")
	stem = truncate(stem, MaxStemLength)
	if stem == "" {
		return models.DefaultFilename
	}
	return stem + Extension
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
