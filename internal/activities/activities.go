package activities

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docindex/internal/chunk"
	"docindex/internal/config"
	"docindex/internal/extract"
	"docindex/internal/logger"
	"docindex/internal/store"
)

type Activities struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
}

func New(cfg config.Config, log *logger.Logger, st *store.Store) *Activities {
	return &Activities{cfg: cfg, log: log, store: st}
}

func (a *Activities) ListPDFsActivity(ctx context.Context, in ListPDFsInput) (ListPDFsOutput, error) {
	_ = ctx
	entries, err := os.ReadDir(in.InputDir)
	if err != nil {
		return ListPDFsOutput{}, fmt.Errorf("read input dir: %w", err)
	}
	paths := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(in.InputDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return ListPDFsOutput{Paths: paths}, nil
}

func (a *Activities) ExtractPagesActivity(ctx context.Context, in ExtractPagesInput) (ExtractPagesOutput, error) {
	_ = ctx
	pages, err := extract.Pages(in.Path)
	if err != nil {
		return ExtractPagesOutput{}, err
	}
	return ExtractPagesOutput{Pages: pages}, nil
}

func (a *Activities) BuildChunksActivity(ctx context.Context, in BuildChunksInput) (BuildChunksOutput, error) {
	_ = ctx
	size := in.ChunkSize
	if size <= 0 {
		size = a.cfg.ChunkSize
	}
	overlap := in.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = a.cfg.ChunkOverlap
	}
	return BuildChunksOutput{Items: chunk.Build(in.Path, in.Pages, size, overlap)}, nil
}

func (a *Activities) EnsureCollectionActivity(ctx context.Context, in EnsureCollectionInput) error {
	return a.store.Ensure(ctx, in.Collection)
}

func (a *Activities) InsertChunksActivity(ctx context.Context, in InsertChunksInput) (InsertChunksOutput, error) {
	inserted, err := a.store.Insert(ctx, in.Collection, in.Items, time.Time{})
	if err != nil {
		return InsertChunksOutput{}, err
	}
	return InsertChunksOutput{Inserted: inserted}, nil
}

func (a *Activities) PurgeCollectionActivity(ctx context.Context, in PurgeCollectionInput) error {
	if err := a.store.Drop(ctx, in.Collection); err != nil {
		return err
	}
	a.log.Info("collection purged", "collection", in.Collection)
	return nil
}
