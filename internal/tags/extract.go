// Package tags derives the lexical tokens used to index and retrieve creations.
package tags

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MinLength is the exclusive lower bound on token length, in characters.
// Words of three characters or fewer are too common to be useful tags.
const MinLength = 3

// Extract splits text on whitespace, lowercases each word and keeps the ones
// longer than MinLength characters. The result is deduplicated and sorted so
// callers get the same slice regardless of word order in the input.
func Extract(text string) []string {
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		word = strings.ToLower(word)
		if utf8.RuneCountInString(word) <= MinLength {
			continue
		}
		seen[word] = struct{}{}
	}

	tokens := make([]string, 0, len(seen))
	for word := range seen {
		tokens = append(tokens, word)
	}
	sort.Strings(tokens)
	return tokens
}
