package knowledge

import (
	"fmt"
	"slices"
	"strings"
)

// Default token weights.
const (
	DefaultTitleWeight = 2
	DefaultBodyWeight  = 1
)

// Searcher ranks knowledge entries for a query.
//
// Implementations must return an empty slice for an empty query, at most
// limit hits, ordered by score descending then entry ID ascending.
type Searcher interface {
	Search(query string, limit int) ([]Hit, error)
}

// IndexOptions configures an Index.
type IndexOptions struct {
	// TitleWeight is added for each query token found in an entry's title.
	// Default: 2
	TitleWeight float64

	// BodyWeight is added for each query token found only in the body or
	// tags. Default: 1
	BodyWeight float64
}

func (o IndexOptions) withDefaults() IndexOptions {
	if o.TitleWeight <= 0 {
		o.TitleWeight = DefaultTitleWeight
	}
	if o.BodyWeight <= 0 {
		o.BodyWeight = DefaultBodyWeight
	}
	return o
}

// Index is an immutable inverted token index over knowledge entries.
type Index struct {
	opts IndexOptions

	entries    map[string]Entry
	ids        []string
	titles     map[string]map[string]struct{}
	postings   map[string]map[string]struct{}
	categories map[string][]string
}

var _ Searcher = (*Index)(nil)

// NewIndex builds an index over entries. Entries are normalized first; an
// empty ID or title fails with ErrInvalidEntry and a repeated ID fails with
// ErrDuplicateID.
func NewIndex(entries []Entry, opts IndexOptions) (*Index, error) {
	idx := &Index{
		opts:       opts.withDefaults(),
		entries:    make(map[string]Entry, len(entries)),
		ids:        make([]string, 0, len(entries)),
		titles:     make(map[string]map[string]struct{}, len(entries)),
		postings:   make(map[string]map[string]struct{}),
		categories: make(map[string][]string),
	}

	for i, raw := range entries {
		entry := raw.Normalized()
		if entry.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrInvalidEntry, i)
		}
		if entry.Title == "" {
			return nil, fmt.Errorf("%w: entry %s has no title", ErrInvalidEntry, entry.ID)
		}
		if _, exists := idx.entries[entry.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
		}

		idx.entries[entry.ID] = entry
		idx.ids = append(idx.ids, entry.ID)
		idx.titles[entry.ID] = tokenSet(entry.Title)
		for tok := range tokenSet(entry.Title, entry.Body, strings.Join(entry.Tags, " ")) {
			ids, ok := idx.postings[tok]
			if !ok {
				ids = make(map[string]struct{})
				idx.postings[tok] = ids
			}
			ids[entry.ID] = struct{}{}
		}
		idx.categories[entry.Category] = append(idx.categories[entry.Category], entry.ID)
	}

	slices.Sort(idx.ids)
	for _, ids := range idx.categories {
		slices.Sort(ids)
	}
	return idx, nil
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// Get returns the entry with the given ID.
func (idx *Index) Get(id string) (Entry, error) {
	entry, ok := idx.entries[strings.TrimSpace(id)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entry.clone(), nil
}

// All returns every entry ordered by ID.
func (idx *Index) All() []Entry {
	return idx.collect(idx.ids)
}

// ListByCategory returns the entries of a category ordered by ID. Unknown
// categories yield an empty slice.
func (idx *Index) ListByCategory(category string) []Entry {
	return idx.collect(idx.categories[strings.ToLower(strings.TrimSpace(category))])
}

// Categories returns the known categories in sorted order.
func (idx *Index) Categories() []string {
	out := make([]string, 0, len(idx.categories))
	for c := range idx.categories {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Search returns up to limit entries matching query, best first.
func (idx *Index) Search(query string, limit int) ([]Hit, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	tokens := distinctTokens(query)
	if len(tokens) == 0 {
		return []Hit{}, nil
	}

	scores := make(map[string]float64)
	for _, tok := range tokens {
		for id := range idx.postings[tok] {
			if _, inTitle := idx.titles[id][tok]; inTitle {
				scores[id] += idx.opts.TitleWeight
			} else {
				scores[id] += idx.opts.BodyWeight
			}
		}
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, Hit{Entry: idx.entries[id].clone(), Score: score})
	}
	SortHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// SortHits orders hits by score descending, then entry ID ascending.
func SortHits(hits []Hit) {
	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.Entry.ID, b.Entry.ID)
		}
	})
}

func (idx *Index) collect(ids []string) []Entry {
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx.entries[id].clone())
	}
	return out
}
