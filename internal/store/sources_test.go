package store

import (
	"testing"
	"time"
)

func TestSourceBase(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"docs/a.pdf#page=3", "docs/a.pdf"},
		{"docs/a.pdf", "docs/a.pdf"},
		{"docs/a.pdf#page=1#extra", "docs/a.pdf"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SourceBase(tc.source); got != tc.want {
			t.Errorf("SourceBase(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestGroupBySource(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	docs := []Doc{
		{ID: "1", Source: "b.pdf#page=1", CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "2", Source: "a.pdf#page=1", CreatedAt: t0},
		{ID: "3", Source: "a.pdf#page=2", CreatedAt: t0.Add(time.Minute)},
		{ID: "4", Source: ""},
		{ID: "5", Source: "a.pdf#page=2", CreatedAt: t0.Add(3 * time.Minute)},
	}
	groups := GroupBySource(docs)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	a, b := groups[0], groups[1]
	if a.Source != "a.pdf" || b.Source != "b.pdf" {
		t.Fatalf("groups not sorted by source: %q, %q", a.Source, b.Source)
	}
	if a.Count != 3 {
		t.Fatalf("a.pdf count = %d, want 3", a.Count)
	}
	if !a.FirstCreatedAt.Equal(t0) {
		t.Fatalf("a.pdf first = %v, want %v", a.FirstCreatedAt, t0)
	}
	if !a.LastCreatedAt.Equal(t0.Add(3 * time.Minute)) {
		t.Fatalf("a.pdf last = %v, want %v", a.LastCreatedAt, t0.Add(3*time.Minute))
	}
	if b.Count != 1 {
		t.Fatalf("b.pdf count = %d, want 1", b.Count)
	}
}

func TestGroupBySourceEmpty(t *testing.T) {
	if groups := GroupBySource(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}
