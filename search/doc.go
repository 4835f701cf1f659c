// Package search provides BM25 and hybrid ranking engines for the knowledge
// corpus. BM25 is backed by an in-memory Bleve index.
//
// It exists to:
//   - Offer stronger relevance ranking than the token index in package
//     knowledge when the corpus grows beyond a handful of articles
//   - Keep the Bleve dependency out of packages that only need lookups
//
// # Usage
//
//	searcher, err := search.NewBM25Searcher(entries, search.BM25Config{})
//	if err != nil {
//	    return err
//	}
//	defer searcher.Close()
//
//	hits, err := searcher.Search("refund invoice", 5)
//
// # Configuration
//
// [BM25Config] allows customization of field boosts:
//
//	cfg := search.BM25Config{
//	    TitleBoost:    3,    // Boost title matches (default: 3)
//	    TagsBoost:     2,    // Boost tag matches (default: 2)
//	    CategoryBoost: 1,    // Boost category matches (default: 1)
//	    MaxBodyLen:    5000, // Truncate long bodies (0 = unlimited)
//	}
//
// # Hybrid ranking
//
// [HybridSearcher] blends two searchers, typically a [BM25Searcher] and the
// token index, with a configurable weight:
//
//	hybrid, err := search.NewHybridSearcher(search.HybridOptions{
//	    Primary:   bm25,
//	    Secondary: index,
//	})
//
// # Behavior
//
// BM25Searcher implements [knowledge.Searcher]. Empty queries return no
// results. Non-empty queries use BM25 ranking with deterministic
// tie-breaking (score DESC, then ID ASC).
//
// # Thread Safety
//
// BM25Searcher is immutable after construction and safe for concurrent use.
package search
