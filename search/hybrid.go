package search

import (
	"errors"

	"github.com/jonwraymond/supportbot/knowledge"
)

// DefaultHybridAlpha weights the primary searcher at 70%.
const DefaultHybridAlpha = 0.7

// candidateFactor widens each searcher's result set before fusion so that
// an entry ranked low by one engine can still surface.
const candidateFactor = 3

var (
	// ErrInvalidHybridConfig is returned for a missing searcher or an alpha
	// outside [0, 1].
	ErrInvalidHybridConfig = errors.New("invalid hybrid config")
)

// HybridOptions configures a HybridSearcher.
type HybridOptions struct {
	// Primary is usually a BM25Searcher. Required.
	Primary knowledge.Searcher

	// Secondary is usually the token index. Required.
	Secondary knowledge.Searcher

	// Alpha is the Primary weight (0.0 to 1.0). Secondary weight is 1-Alpha.
	// A nil Alpha means DefaultHybridAlpha.
	Alpha *float64
}

// HybridSearcher blends two searchers. Each searcher's scores are scaled to
// [0, 1] by its best hit before weighting, since BM25 and token scores live
// on different scales.
type HybridSearcher struct {
	primary   knowledge.Searcher
	secondary knowledge.Searcher
	alpha     float64
}

// NewHybridSearcher creates a HybridSearcher.
func NewHybridSearcher(opts HybridOptions) (*HybridSearcher, error) {
	if opts.Primary == nil || opts.Secondary == nil {
		return nil, ErrInvalidHybridConfig
	}
	alpha := DefaultHybridAlpha
	if opts.Alpha != nil {
		alpha = *opts.Alpha
	}
	if alpha < 0 || alpha > 1 {
		return nil, ErrInvalidHybridConfig
	}
	return &HybridSearcher{primary: opts.Primary, secondary: opts.Secondary, alpha: alpha}, nil
}

// Alpha returns the primary weight.
func (h *HybridSearcher) Alpha() float64 {
	return h.alpha
}

// Fingerprint returns the primary searcher's fingerprint, if it has one.
func (h *HybridSearcher) Fingerprint() string {
	if fp, ok := h.primary.(interface{ Fingerprint() string }); ok {
		return fp.Fingerprint()
	}
	return ""
}

// Search implements knowledge.Searcher.
func (h *HybridSearcher) Search(q string, limit int) ([]knowledge.Hit, error) {
	if limit <= 0 {
		return nil, knowledge.ErrInvalidLimit
	}

	primary, err := h.primary.Search(q, limit*candidateFactor)
	if err != nil {
		return nil, err
	}
	secondary, err := h.secondary.Search(q, limit*candidateFactor)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]knowledge.Entry)
	scores := make(map[string]float64)
	blend := func(hits []knowledge.Hit, weight float64) {
		best := 0.0
		for _, hit := range hits {
			best = max(best, hit.Score)
		}
		if best == 0 {
			return
		}
		for _, hit := range hits {
			entries[hit.Entry.ID] = hit.Entry
			scores[hit.Entry.ID] += weight * hit.Score / best
		}
	}
	blend(primary, h.alpha)
	blend(secondary, 1-h.alpha)

	hits := make([]knowledge.Hit, 0, len(scores))
	for id, score := range scores {
		if score > 0 {
			hits = append(hits, knowledge.Hit{Entry: entries[id], Score: score})
		}
	}
	knowledge.SortHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
