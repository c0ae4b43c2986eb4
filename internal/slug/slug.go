// Package slug turns titles into URL-safe identifiers.
package slug

import (
	"strings"
	"unicode"
)

// Make lowercases the input, replaces runs of non-alphanumeric characters
// with single hyphens, and trims leading/trailing hyphens.
func Make(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
