// Package preprocess provides text normalization applied before intent
// classification. Rule matching always sees the raw utterance; only the
// classifier receives normalized text.
package preprocess

import (
	"regexp"
	"strings"
)

var (
	digits     = regexp.MustCompile(`\d+`)
	nonWord    = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Normalize lowercases the text, strips digits and punctuation, and collapses
// whitespace runs.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = digits.ReplaceAllString(text, " ")
	text = nonWord.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
