package store

import (
	"context"
	"sort"
	"strings"
	"time"
)

// SourceGroup aggregates all chunks sharing one originating document. It
// has no storage of its own; it is a projection over the chunk records.
type SourceGroup struct {
	Source         string    `json:"source"`
	Count          int       `json:"count"`
	FirstCreatedAt time.Time `json:"first_created_at"`
	LastCreatedAt  time.Time `json:"last_created_at"`
}

// SourceBase is the document's logical identity: everything before the
// locator delimiter.
func SourceBase(source string) string {
	base, _, _ := strings.Cut(source, "#")
	return base
}

// GroupBySource folds chunk records into source groups, sorted by source
// ascending. Chunks with an empty source are excluded.
func GroupBySource(docs []Doc) []SourceGroup {
	byBase := make(map[string]*SourceGroup)
	for _, d := range docs {
		base := SourceBase(d.Source)
		if base == "" {
			continue
		}
		g, ok := byBase[base]
		if !ok {
			g = &SourceGroup{Source: base, FirstCreatedAt: d.CreatedAt, LastCreatedAt: d.CreatedAt}
			byBase[base] = g
		}
		g.Count++
		if !d.CreatedAt.IsZero() {
			if g.FirstCreatedAt.IsZero() || d.CreatedAt.Before(g.FirstCreatedAt) {
				g.FirstCreatedAt = d.CreatedAt
			}
			if d.CreatedAt.After(g.LastCreatedAt) {
				g.LastCreatedAt = d.CreatedAt
			}
		}
	}
	out := make([]SourceGroup, 0, len(byBase))
	for _, g := range byBase {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// ListSources scans the collection and returns its source groups.
func (s *Store) ListSources(ctx context.Context, collection string) ([]SourceGroup, error) {
	docs := make([]Doc, 0)
	err := s.ForEach(ctx, collection, func(d Doc) error {
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GroupBySource(docs), nil
}

// DeleteSource removes every chunk whose source base equals source exactly
// and returns how many were actually deleted. An id already gone by the
// time we get to it does not count and does not fail the call.
func (s *Store) DeleteSource(ctx context.Context, collection, source string) (int, error) {
	if source == "" {
		return 0, nil
	}
	ids := make([]string, 0)
	err := s.ForEach(ctx, collection, func(d Doc) error {
		if SourceBase(d.Source) == source {
			ids = append(ids, d.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, id := range ids {
		ok, err := s.DeleteByID(ctx, collection, id)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}
