package knowledge

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenLen is the shortest token, in runes, kept by Tokenize.
const MinTokenLen = 2

// Tokenize lower-cases text and splits it on every rune that is not a
// letter or digit. Tokens shorter than MinTokenLen are dropped. Order and
// duplicates are preserved.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= MinTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// tokenSet returns the distinct tokens of all texts.
func tokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, tok := range Tokenize(text) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// distinctTokens returns the query's tokens with duplicates removed, in
// first-seen order.
func distinctTokens(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
