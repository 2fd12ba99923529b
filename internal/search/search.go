package search

import (
	"context"
	"sort"
	"strings"

	"docindex/internal/store"
)

// Searcher is the per-collection search the coordinator fans out to.
// The store's configured mode decides which search path runs.
type Searcher interface {
	Search(ctx context.Context, collection, query string, limit int) ([]store.Hit, error)
}

// Coordinator merges ranked hits across collections. All behavior is
// fixed at construction; nothing is read from ambient state per call.
type Coordinator struct {
	searcher Searcher
}

func NewCoordinator(searcher Searcher) *Coordinator {
	return &Coordinator{searcher: searcher}
}

// RankKey maps a hit's native relevance signal onto one comparable scale:
// a score is used directly, a distance d becomes 1/(1+d), and a hit with
// neither ranks last. The distance transform is a monotone heuristic, not
// a calibrated probability; an unbounded lexical score can outrank any
// semantic hit.
func RankKey(h store.Hit) float64 {
	if h.Score != nil {
		return *h.Score
	}
	if h.Distance != nil {
		return 1.0 / (1.0 + *h.Distance)
	}
	return 0
}

// Across searches each named collection with the same limit, tags every
// hit with its origin, and returns the top hits by rank key. Blank
// collection names are skipped. Ties keep the order hits arrived in:
// collections in caller order, each collection's hits in store order, so
// the result is deterministic for a fixed input.
func (c *Coordinator) Across(ctx context.Context, query string, limit int, collections []string) ([]store.Hit, error) {
	merged := make([]store.Hit, 0, limit*2)
	for _, name := range collections {
		if strings.TrimSpace(name) == "" {
			continue
		}
		hits, err := c.searcher.Search(ctx, name, query, limit)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if h.Collection == "" {
				h.Collection = name
			}
			merged = append(merged, h)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return RankKey(merged[i]) > RankKey(merged[j])
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}
