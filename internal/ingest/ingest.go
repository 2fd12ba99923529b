package ingest

import (
	"context"
	"fmt"
	"time"

	"docindex/internal/chunk"
	"docindex/internal/extract"
	"docindex/internal/logger"
	"docindex/internal/store"
)

// Result reports what one document contributed. A document with no
// extractable text yields zero chunks and pages without error.
type Result struct {
	Chunks     int    `json:"chunks"`
	Pages      int    `json:"pages"`
	SourceBase string `json:"source_base"`
}

type Ingestor struct {
	store   *store.Store
	log     *logger.Logger
	size    int
	overlap int
	pages   func(path string) ([]extract.Page, error)
}

func New(st *store.Store, log *logger.Logger, chunkSize, chunkOverlap int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = chunk.DefaultSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunk.DefaultOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = 0
		}
	}
	return &Ingestor{store: st, log: log, size: chunkSize, overlap: chunkOverlap, pages: extract.Pages}
}

// IngestPDF extracts, chunks, and stores one document into the given
// collection. Extraction failures abort the whole call with nothing
// written; store failures surface to the caller.
func (i *Ingestor) IngestPDF(ctx context.Context, path, collection string) (Result, error) {
	pages, err := i.pages(path)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", path, err)
	}
	if len(pages) == 0 {
		return Result{SourceBase: path}, nil
	}
	items := chunk.Build(path, pages, i.size, i.overlap)
	if len(items) == 0 {
		return Result{Pages: len(pages), SourceBase: path}, nil
	}
	if err := i.store.Ensure(ctx, collection); err != nil {
		return Result{}, err
	}
	inserted, err := i.store.Insert(ctx, collection, items, time.Time{})
	if err != nil {
		return Result{}, err
	}
	i.log.Info("document ingested",
		"path", path,
		"collection", collection,
		"pages", len(pages),
		"chunks", inserted,
	)
	return Result{Chunks: inserted, Pages: len(pages), SourceBase: path}, nil
}
