package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CollectionPrefix distinguishes tenant collections from system ones
// (like the shared seed collection).
const CollectionPrefix = "user_"

// Normalize derives a collection name from a raw tenant name: lowercase,
// non-alphanumeric runs folded to a single underscore, empty segments
// collapsed, "guest" when nothing survives. Idempotent: an already
// normalized name passes through unchanged. Distinct raw names that
// normalize identically share a collection on purpose.
func Normalize(raw string) string {
	base := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, ch := range base {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	segments := make([]string, 0, 4)
	for _, part := range strings.Split(b.String(), "_") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	safe := strings.Join(segments, "_")
	if safe == "" {
		safe = "guest"
	}
	if strings.HasPrefix(safe, CollectionPrefix) {
		return safe
	}
	return CollectionPrefix + safe
}

// chunkColumns is the required collection schema. id and embedding are
// store infrastructure; the other four are the chunk contract.
var chunkColumns = []struct {
	name string
	typ  string
}{
	{"id", "uuid"},
	{"title", "text"},
	{"content", "text"},
	{"source", "text"},
	{"created_at", "timestamptz"},
	{"embedding", ""}, // vector type, dimension filled in at runtime
}

// Ensure creates the collection's table if missing, or adds any missing
// columns to an existing one. Never drops or renames anything. Safe under
// concurrent callers racing to create the same collection.
func (s *Store) Ensure(ctx context.Context, collection string) error {
	tbl := ident(collection)
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id uuid PRIMARY KEY,
		title text,
		content text,
		source text,
		created_at timestamptz,
		embedding vector(%d)
	)`, tbl, s.dim)
	if _, err := s.q.Exec(ctx, create); err != nil && !isDuplicateObject(err) {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}

	existing, err := s.columns(ctx, collection)
	if err != nil {
		return err
	}
	for _, col := range chunkColumns {
		if existing[col.name] {
			continue
		}
		typ := col.typ
		if typ == "" {
			typ = fmt.Sprintf("vector(%d)", s.dim)
		}
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s`, tbl, ident(col.name), typ)
		if _, err := s.q.Exec(ctx, alter); err != nil && !isDuplicateObject(err) {
			return fmt.Errorf("add column %s to %s: %w", col.name, collection, err)
		}
	}
	return nil
}

// Drop removes a collection and everything in it. Administrative purge
// only; nothing calls this implicitly.
func (s *Store) Drop(ctx context.Context, collection string) error {
	if _, err := s.q.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, ident(collection))); err != nil {
		return fmt.Errorf("drop collection %s: %w", collection, err)
	}
	return nil
}

// TenantCollections lists existing tenant collections, sorted.
func (s *Store) TenantCollections(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, `
SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_name LIKE $1`, CollectionPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) columns(ctx context.Context, collection string) (map[string]bool, error) {
	rows, err := s.q.Query(ctx, `
SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("inspect collection %s: %w", collection, err)
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		out[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return out, nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Duplicate table/column SQLSTATEs from racing creators count as success.
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P07" || pgErr.Code == "42701"
	}
	return false
}

// A collection that was never created has nothing in it; searches treat
// its missing table as an empty result, not an error.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}
