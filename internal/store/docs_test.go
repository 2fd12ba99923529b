package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"docindex/internal/chunk"
	"docindex/internal/embed"
)

func newTestStore(t *testing.T, opts Options) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	if opts.Dim == 0 {
		opts.Dim = 4
	}
	return New(mock, embed.NewMockProvider(opts.Dim), opts), mock
}

func TestInsertSkipsEmptyContent(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	items := []chunk.Item{
		{Title: "doc p1 c1", Content: "# doc\n\nfirst", Source: "doc.pdf#page=1"},
		{Title: "doc p1 c2", Content: "   ", Source: "doc.pdf#page=1"},
		{Title: "doc p2 c1", Content: "# doc\n\nsecond", Source: "doc.pdf#page=2"},
	}
	mock.ExpectExec(`INSERT INTO "user_alice"`).
		WithArgs(pgxmock.AnyArg(), "doc p1 c1", "# doc\n\nfirst", "doc.pdf#page=1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO "user_alice"`).
		WithArgs(pgxmock.AnyArg(), "doc p2 c1", "# doc\n\nsecond", "doc.pdf#page=2", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := st.Insert(context.Background(), "user_alice", items, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAllEmptyIsNoop(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	items := []chunk.Item{{Title: "t", Content: "\n\t "}}
	n, err := st.Insert(context.Background(), "user_alice", items, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByID(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	mock.ExpectExec(`DELETE FROM "user_alice"`).
		WithArgs("id-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM "user_alice"`).
		WithArgs("id-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ok, err := st.DeleteByID(context.Background(), "user_alice", "id-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.DeleteByID(context.Background(), "user_alice", "id-2")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPagesInOrder(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	created := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "title", "content", "source", "created_at"}).
		AddRow("a", "doc p1 c1", "body one", "doc.pdf#page=1", created).
		AddRow("b", "doc p1 c2", "body two", "doc.pdf#page=1", created.Add(time.Second))
	mock.ExpectQuery(`SELECT id, title, content, source, created_at`).
		WithArgs(10, 0).
		WillReturnRows(rows)

	docs, err := st.List(context.Background(), "user_alice", 10, 0, false)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a", docs[0].ID)
	require.Equal(t, "doc p1 c2", docs[1].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchKeywordSetsScore(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	created := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "title", "content", "source", "created_at", "score"}).
		AddRow("a", "doc p1 c1", "fermentation basics", "doc.pdf#page=1", created, 0.42)
	mock.ExpectQuery(`ts_rank`).
		WithArgs("fermentation", 5).
		WillReturnRows(rows)

	hits, err := st.SearchKeyword(context.Background(), "user_alice", "fermentation", nil, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.NotNil(t, hits[0].Score)
	require.InDelta(t, 0.42, *hits[0].Score, 1e-9)
	require.Nil(t, hits[0].Distance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchSemanticSetsDistance(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	created := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "title", "content", "source", "created_at", "distance"}).
		AddRow("a", "doc p1 c1", "fermentation basics", "doc.pdf#page=1", created, 0.12)
	mock.ExpectQuery(`ORDER BY embedding`).
		WithArgs(pgxmock.AnyArg(), 3).
		WillReturnRows(rows)

	hits, err := st.SearchSemantic(context.Background(), "user_alice", "fermentation", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.NotNil(t, hits[0].Distance)
	require.InDelta(t, 0.12, *hits[0].Distance, 1e-9)
	require.Nil(t, hits[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchHybridSetsScore(t *testing.T) {
	st, mock := newTestStore(t, Options{Mode: ModeHybrid, Alpha: 0.7})
	created := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "title", "content", "source", "created_at", "score"}).
		AddRow("a", "doc p1 c1", "fermentation basics", "doc.pdf#page=1", created, 0.81).
		AddRow("b", "doc p2 c1", "brine ratios", "doc.pdf#page=2", created, 0.64)
	mock.ExpectQuery(`AS score`).
		WithArgs("fermentation", pgxmock.AnyArg(), 0.7, 2).
		WillReturnRows(rows)

	hits, err := st.Search(context.Background(), "user_alice", "fermentation", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		require.NotNil(t, h.Score)
		require.Nil(t, h.Distance)
	}
	require.InDelta(t, 0.81, *hits[0].Score, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchUnknownModeFallsBackToSemantic(t *testing.T) {
	st, mock := newTestStore(t, Options{Mode: "lexical-fusion"})
	created := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "title", "content", "source", "created_at", "distance"}).
		AddRow("a", "doc p1 c1", "fermentation basics", "doc.pdf#page=1", created, 0.2)
	mock.ExpectQuery(`ORDER BY embedding`).
		WithArgs(pgxmock.AnyArg(), 5).
		WillReturnRows(rows)

	hits, err := st.Search(context.Background(), "user_alice", "fermentation", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.NotNil(t, hits[0].Distance)
	require.Nil(t, hits[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchMissingCollectionIsEmpty(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	missing := &pgconn.PgError{Code: "42P01", Message: `relation "seed_library" does not exist`}
	mock.ExpectQuery(`ORDER BY embedding`).
		WithArgs(pgxmock.AnyArg(), 5).
		WillReturnError(missing)
	mock.ExpectQuery(`ts_rank`).
		WithArgs("fermentation", 5).
		WillReturnError(missing)

	hits, err := st.SearchSemantic(context.Background(), "seed_library", "fermentation", 0)
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = st.SearchKeyword(context.Background(), "seed_library", "fermentation", nil, 0)
	require.NoError(t, err)
	require.Empty(t, hits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureCreatesFreshTable(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "user_alice"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	cols := pgxmock.NewRows([]string{"column_name"})
	for _, name := range []string{"id", "title", "content", "source", "created_at", "embedding"} {
		cols.AddRow(name)
	}
	mock.ExpectQuery(`SELECT column_name FROM information_schema.columns`).
		WithArgs("user_alice").
		WillReturnRows(cols)

	require.NoError(t, st.Ensure(context.Background(), "user_alice"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAddsMissingColumns(t *testing.T) {
	st, mock := newTestStore(t, Options{})
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "user_alice"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	cols := pgxmock.NewRows([]string{"column_name"}).
		AddRow("id").AddRow("title").AddRow("content")
	mock.ExpectQuery(`SELECT column_name FROM information_schema.columns`).
		WithArgs("user_alice").
		WillReturnRows(cols)
	for range []string{"source", "created_at", "embedding"} {
		mock.ExpectExec(`ALTER TABLE "user_alice" ADD COLUMN IF NOT EXISTS`).
			WillReturnResult(pgxmock.NewResult("ALTER", 0))
	}

	require.NoError(t, st.Ensure(context.Background(), "user_alice"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVecLiteral(t *testing.T) {
	require.Equal(t, "[0.500000,-1.000000]", vecLiteral([]float32{0.5, -1}))
}

func TestTsvExpr(t *testing.T) {
	require.Equal(t, "to_tsvector('simple', concat_ws(' ', title, content))", tsvExpr(nil))
	require.Equal(t, "to_tsvector('simple', concat_ws(' ', title))", tsvExpr([]string{"title", "author"}))
}
