// Package knowledge holds the support bot's knowledge corpus and the token
// index that answers lookups and ranked searches over it.
//
// An [Index] is built once from a slice of [Entry] values and is immutable
// afterwards; rebuilding means constructing a new Index from a fresh
// document. All methods are safe for concurrent use.
//
// # Usage
//
//	idx, err := knowledge.NewIndex(entries, knowledge.IndexOptions{})
//	if err != nil {
//	    return err
//	}
//	hits, err := idx.Search("password reset", 5)
//
// # Ranking
//
// Title, body and tags are tokenized with [Tokenize]: lower-cased, split on
// anything that is not a letter or digit, tokens shorter than two runes
// dropped. Each distinct query token found in an entry contributes
// TitleWeight when it appears in the title, BodyWeight otherwise. Results
// are ordered by score descending, then ID ascending.
//
// An empty query (or one with no usable tokens) returns no results rather
// than the whole corpus.
package knowledge
