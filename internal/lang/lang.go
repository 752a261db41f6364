// Package lang normalizes and compares BCP 47 language tags.
//
// Cached transcripts are keyed by language; a request for "en" must hit an
// entry stored under "en-US" and vice versa, so comparison happens at the
// base-language level.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Normalize canonicalizes a language tag to its lowercase base language.
// Unparseable or empty tags normalize to the empty string.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		// Keep whatever the caller sent, lowercased, so keys stay stable.
		return strings.ToLower(tag)
	}
	base, _ := t.Base()
	return base.String()
}

// Match reports whether two language tags share the same base language.
func Match(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
