package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"docindex/internal/embed"
	"docindex/internal/store"
)

type fakeSearcher struct {
	hits map[string][]store.Hit
	err  error
}

func (f *fakeSearcher) Search(ctx context.Context, collection, query string, limit int) ([]store.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[collection], nil
}

func ptr(v float64) *float64 { return &v }

func TestRankKey(t *testing.T) {
	require.InDelta(t, 0.9, RankKey(store.Hit{Score: ptr(0.9)}), 1e-9)
	require.InDelta(t, 1.0/1.1, RankKey(store.Hit{Distance: ptr(0.1)}), 1e-9)
	// Score wins when both are set.
	require.InDelta(t, 0.3, RankKey(store.Hit{Score: ptr(0.3), Distance: ptr(0.0)}), 1e-9)
	require.Zero(t, RankKey(store.Hit{}))
}

func TestAcrossMergesByRank(t *testing.T) {
	f := &fakeSearcher{hits: map[string][]store.Hit{
		"user_alice": {
			{ID: "a1", Score: ptr(0.9)},
			{ID: "a2", Score: ptr(0.2)},
		},
		"seed_library": {
			{ID: "s1", Distance: ptr(0.05)}, // ranks ~0.952
		},
	}}
	c := NewCoordinator(f)
	hits, err := c.Across(context.Background(), "ferments", 2, []string{"user_alice", "seed_library"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "s1", hits[0].ID)
	require.Equal(t, "seed_library", hits[0].Collection)
	require.Equal(t, "a1", hits[1].ID)
	require.Equal(t, "user_alice", hits[1].Collection)
}

func TestAcrossSkipsBlankCollections(t *testing.T) {
	f := &fakeSearcher{hits: map[string][]store.Hit{
		"user_alice": {{ID: "a1", Score: ptr(0.5)}},
	}}
	c := NewCoordinator(f)
	hits, err := c.Across(context.Background(), "q", 5, []string{"", "  ", "user_alice"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "a1", hits[0].ID)
}

func TestAcrossStableTieOrder(t *testing.T) {
	f := &fakeSearcher{hits: map[string][]store.Hit{
		"one": {{ID: "x", Score: ptr(0.5)}},
		"two": {{ID: "y", Score: ptr(0.5)}},
	}}
	c := NewCoordinator(f)
	hits, err := c.Across(context.Background(), "q", 5, []string{"one", "two"})
	require.NoError(t, err)
	require.Equal(t, "x", hits[0].ID)
	require.Equal(t, "y", hits[1].ID)
}

// A collection that was never created must not fail the whole search:
// the other collections' hits still come back.
func TestAcrossToleratesMissingCollection(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	st := store.New(mock, embed.NewMockProvider(4), store.Options{Dim: 4})

	created := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "title", "content", "source", "created_at", "distance"}).
		AddRow("a1", "doc p1 c1", "fermentation basics", "doc.pdf#page=1", created, 0.2)
	mock.ExpectQuery(`ORDER BY embedding`).
		WithArgs(pgxmock.AnyArg(), 5).
		WillReturnRows(rows)
	mock.ExpectQuery(`ORDER BY embedding`).
		WithArgs(pgxmock.AnyArg(), 5).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "seed_library" does not exist`})

	c := NewCoordinator(st)
	hits, err := c.Across(context.Background(), "fermentation", 5, []string{"user_alice", "seed_library"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "a1", hits[0].ID)
	require.Equal(t, "user_alice", hits[0].Collection)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcrossPropagatesError(t *testing.T) {
	f := &fakeSearcher{err: errors.New("collection unavailable")}
	c := NewCoordinator(f)
	_, err := c.Across(context.Background(), "q", 5, []string{"user_alice"})
	require.Error(t, err)
}
