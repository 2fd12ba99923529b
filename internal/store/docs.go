package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docindex/internal/chunk"
	"docindex/internal/embed"
)

// Search modes. Unrecognized values fall back to semantic.
const (
	ModeSemantic = "semantic"
	ModeKeyword  = "keyword"
	ModeHybrid   = "hybrid"
)

// Doc is a stored chunk record.
type Doc struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Hit is a search result. Semantic hits carry Distance (lower is closer);
// keyword and hybrid hits carry Score (higher is better).
type Hit struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	Distance   *float64  `json:"distance"`
	Score      *float64  `json:"score"`
	Collection string    `json:"collection,omitempty"`
}

// Options fix the store's behavior at construction time; nothing is read
// from ambient state at call time.
type Options struct {
	Dim       int
	Mode      string
	Alpha     float64
	ScanBatch int
	ScanCap   int
}

type Store struct {
	q        Querier
	embedder embed.Provider
	dim      int
	mode     string
	alpha    float64
	batch    int
	scanCap  int
}

func New(q Querier, embedder embed.Provider, opts Options) *Store {
	if opts.Dim <= 0 {
		opts.Dim = 1536
	}
	if opts.Alpha < 0 || opts.Alpha > 1 {
		opts.Alpha = 0.7
	}
	if opts.ScanBatch <= 0 {
		opts.ScanBatch = 200
	}
	if opts.ScanCap <= 0 {
		opts.ScanCap = 2000
	}
	return &Store{
		q:        q,
		embedder: embedder,
		dim:      opts.Dim,
		mode:     normalizeMode(opts.Mode),
		alpha:    opts.Alpha,
		batch:    opts.ScanBatch,
		scanCap:  opts.ScanCap,
	}
}

// Insert stores the items with non-empty content, deriving each vector
// from title+content. createdAt applies to the whole batch; pass the zero
// time to stamp rows at insert time. Returns the number inserted.
func (s *Store) Insert(ctx context.Context, collection string, items []chunk.Item, createdAt time.Time) (int, error) {
	kept := make([]chunk.Item, 0, len(items))
	inputs := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		kept = append(kept, item)
		inputs = append(inputs, item.Title+"\n\n"+item.Content)
	}
	if len(kept) == 0 {
		return 0, nil
	}
	vectors, _, err := s.embedder.Embed(ctx, embed.Request{Inputs: inputs, Dimension: s.dim})
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks: %w", len(kept), err)
	}
	if len(vectors) != len(kept) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(kept))
	}

	sql := fmt.Sprintf(`INSERT INTO %s (id, title, content, source, created_at, embedding)
VALUES ($1, $2, $3, $4, $5, $6::vector)`, ident(collection))
	count := 0
	for i, item := range kept {
		ts := createdAt
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := s.q.Exec(ctx, sql,
			uuid.NewString(), item.Title, item.Content, item.Source, ts, vecLiteral(vectors[i]),
		); err != nil {
			return count, fmt.Errorf("insert chunk %q: %w", item.Title, err)
		}
		count++
	}
	return count, nil
}

// SearchSemantic runs nearest-neighbor search by cosine distance.
func (s *Store) SearchSemantic(ctx context.Context, collection, query string, limit int) ([]Hit, error) {
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(`
SELECT id, title, content, source, created_at, (embedding <=> $1::vector) AS distance
FROM %s
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1::vector
LIMIT $2`, ident(collection))
	return s.queryHits(ctx, false, sql, vec, clampLimit(limit))
}

// SearchKeyword ranks by Postgres full-text term frequency over the
// requested fields (title/content; both when fields is empty).
func (s *Store) SearchKeyword(ctx context.Context, collection, query string, fields []string, limit int) ([]Hit, error) {
	expr := tsvExpr(fields)
	sql := fmt.Sprintf(`
SELECT id, title, content, source, created_at, ts_rank(%s, plainto_tsquery('simple', $1))::float8 AS score
FROM %s
WHERE %s @@ plainto_tsquery('simple', $1)
ORDER BY score DESC, created_at DESC
LIMIT $2`, expr, ident(collection), expr)
	return s.queryHits(ctx, true, sql, query, clampLimit(limit))
}

// SearchHybrid blends vector similarity and lexical rank:
// alpha=1 is pure semantic, alpha=0 pure keyword. Hits carry a score.
func (s *Store) SearchHybrid(ctx context.Context, collection, query string, fields []string, alpha float64, limit int) ([]Hit, error) {
	if alpha < 0 || alpha > 1 {
		alpha = s.alpha
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(`
SELECT id, title, content, source, created_at,
       ($3::float8 * (1 - (embedding <=> $2::vector)) +
        (1 - $3::float8) * ts_rank(%s, plainto_tsquery('simple', $1)))::float8 AS score
FROM %s
WHERE embedding IS NOT NULL
ORDER BY score DESC
LIMIT $4`, tsvExpr(fields), ident(collection))
	return s.queryHits(ctx, true, sql, query, vec, alpha, clampLimit(limit))
}

// Search dispatches on the mode fixed at construction.
func (s *Store) Search(ctx context.Context, collection, query string, limit int) ([]Hit, error) {
	switch s.mode {
	case ModeKeyword:
		return s.SearchKeyword(ctx, collection, query, nil, limit)
	case ModeHybrid:
		return s.SearchHybrid(ctx, collection, query, nil, s.alpha, limit)
	default:
		return s.SearchSemantic(ctx, collection, query, limit)
	}
}

// List returns one page of chunk records for browsing.
func (s *Store) List(ctx context.Context, collection string, limit, offset int, newestFirst bool) ([]Doc, error) {
	dir := "ASC"
	if newestFirst {
		dir = "DESC"
	}
	sql := fmt.Sprintf(`
SELECT id, title, content, source, created_at
FROM %s
ORDER BY created_at %s, id %s
LIMIT $1 OFFSET $2`, ident(collection), dir, dir)
	rows, err := s.q.Query(ctx, sql, clampLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()
	out := make([]Doc, 0, limit)
	for rows.Next() {
		var d Doc
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.Source, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan doc: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate docs: %w", err)
	}
	return out, nil
}

// ForEach scans the whole collection in bounded offset batches, stopping
// on the first empty batch. The scan cap guards against pathological
// stores; it is not an error to hit it.
func (s *Store) ForEach(ctx context.Context, collection string, fn func(Doc) error) error {
	for offset := 0; offset < s.scanCap; offset += s.batch {
		docs, err := s.List(ctx, collection, s.batch, offset, false)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}
		for _, d := range docs {
			if err := fn(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteByID removes one chunk. Deleting an id that does not exist is a
// no-op, reported as false.
func (s *Store) DeleteByID(ctx context.Context, collection, id string) (bool, error) {
	tag, err := s.q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, ident(collection)), id)
	if err != nil {
		return false, fmt.Errorf("delete %s from %s: %w", id, collection, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) embedQuery(ctx context.Context, query string) (string, error) {
	vectors, _, err := s.embedder.Embed(ctx, embed.Request{Inputs: []string{query}, Dimension: s.dim})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return "", fmt.Errorf("embedder returned no vector for query")
	}
	return vecLiteral(vectors[0]), nil
}

// queryHits runs a search statement whose last selected column is either
// a score or a distance.
func (s *Store) queryHits(ctx context.Context, scored bool, sql string, args ...any) ([]Hit, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return []Hit{}, nil
		}
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	hits := make([]Hit, 0)
	for rows.Next() {
		var h Hit
		var metric float64
		if err := rows.Scan(&h.ID, &h.Title, &h.Content, &h.Source, &h.CreatedAt, &metric); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		m := metric
		if scored {
			h.Score = &m
		} else {
			h.Distance = &m
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return hits, nil
}

func normalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeKeyword:
		return ModeKeyword
	case ModeHybrid:
		return ModeHybrid
	default:
		return ModeSemantic
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 5
	}
	return limit
}

func tsvExpr(fields []string) string {
	cols := make([]string, 0, 2)
	for _, f := range fields {
		if f == "title" || f == "content" {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		cols = []string{"title", "content"}
	}
	return fmt.Sprintf("to_tsvector('simple', concat_ws(' ', %s))", strings.Join(cols, ", "))
}

func vecLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
