package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/jonwraymond/supportbot/knowledge"
)

// Default field boosts.
const (
	DefaultTitleBoost    = 3
	DefaultTagsBoost     = 2
	DefaultCategoryBoost = 1
)

// ErrClosed is returned by Search after Close.
var ErrClosed = errors.New("searcher closed")

// BM25Config configures field boosts and safety limits.
type BM25Config struct {
	TitleBoost    float64
	TagsBoost     float64
	CategoryBoost float64

	// MaxBodyLen truncates entry bodies before indexing (0 = unlimited).
	MaxBodyLen int
}

func (c BM25Config) withDefaults() BM25Config {
	if c.TitleBoost <= 0 {
		c.TitleBoost = DefaultTitleBoost
	}
	if c.TagsBoost <= 0 {
		c.TagsBoost = DefaultTagsBoost
	}
	if c.CategoryBoost <= 0 {
		c.CategoryBoost = DefaultCategoryBoost
	}
	return c
}

// BM25Searcher ranks knowledge entries with Bleve's BM25 scoring.
type BM25Searcher struct {
	cfg         BM25Config
	entries     map[string]knowledge.Entry
	fingerprint string

	mu    sync.RWMutex
	index bleve.Index
}

var _ knowledge.Searcher = (*BM25Searcher)(nil)

// NewBM25Searcher indexes entries into a memory-only Bleve index.
// Entries are normalized the same way knowledge.NewIndex does.
func NewBM25Searcher(entries []knowledge.Entry, cfg BM25Config) (*BM25Searcher, error) {
	cfg = cfg.withDefaults()

	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}

	normalized := make([]knowledge.Entry, 0, len(entries))
	byID := make(map[string]knowledge.Entry, len(entries))
	batch := idx.NewBatch()
	for _, raw := range entries {
		entry := raw.Normalized()
		if entry.ID == "" {
			_ = idx.Close()
			return nil, fmt.Errorf("%w: entry has no id", knowledge.ErrInvalidEntry)
		}
		if _, exists := byID[entry.ID]; exists {
			_ = idx.Close()
			return nil, fmt.Errorf("%w: %s", knowledge.ErrDuplicateID, entry.ID)
		}
		byID[entry.ID] = entry
		normalized = append(normalized, entry)

		body := entry.Body
		if cfg.MaxBodyLen > 0 && len(body) > cfg.MaxBodyLen {
			body = body[:cfg.MaxBodyLen]
		}
		if err := batch.Index(entry.ID, map[string]any{
			"title":    entry.Title,
			"body":     body,
			"tags":     strings.Join(entry.Tags, " "),
			"category": entry.Category,
		}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index entry %s: %w", entry.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("index batch: %w", err)
	}

	return &BM25Searcher{
		cfg:         cfg,
		index:       idx,
		entries:     byID,
		fingerprint: computeFingerprint(normalized),
	}, nil
}

func buildMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Store = false

	doc := bleve.NewDocumentMapping()
	for _, field := range []string{"title", "body", "tags", "category"} {
		doc.AddFieldMappingsAt(field, text)
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// Fingerprint identifies the indexed entry set.
func (s *BM25Searcher) Fingerprint() string {
	return s.fingerprint
}

// Search returns up to limit entries ranked by BM25.
func (s *BM25Searcher) Search(q string, limit int) ([]knowledge.Hit, error) {
	if limit < 1 {
		return nil, knowledge.ErrInvalidLimit
	}
	q = strings.TrimSpace(q)
	if q == "" || len(s.entries) == 0 {
		return []knowledge.Hit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, ErrClosed
	}

	// Every match is fetched so ties are broken by ID across the whole
	// result set, not only within Bleve's first page.
	req := bleve.NewSearchRequestOptions(s.buildQuery(q), len(s.entries), 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]knowledge.Hit, 0, len(res.Hits))
	for _, match := range res.Hits {
		entry, ok := s.entries[match.ID]
		if !ok {
			continue
		}
		hits = append(hits, knowledge.Hit{Entry: entry, Score: match.Score})
	}
	knowledge.SortHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *BM25Searcher) buildQuery(q string) query.Query {
	fields := []struct {
		name  string
		boost float64
	}{
		{"title", s.cfg.TitleBoost},
		{"body", 1},
		{"tags", s.cfg.TagsBoost},
		{"category", s.cfg.CategoryBoost},
	}

	queries := make([]query.Query, 0, len(fields))
	for _, f := range fields {
		mq := bleve.NewMatchQuery(q)
		mq.SetField(f.name)
		mq.SetBoost(f.boost)
		queries = append(queries, mq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Close releases the Bleve index. It is safe to call more than once.
func (s *BM25Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
