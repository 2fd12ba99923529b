package activities

import (
	"docindex/internal/chunk"
	"docindex/internal/extract"
)

type ListPDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListPDFsOutput struct {
	Paths []string `json:"paths"`
}

type ExtractPagesInput struct {
	Path string `json:"path"`
}

type ExtractPagesOutput struct {
	Pages []extract.Page `json:"pages"`
}

type BuildChunksInput struct {
	Path         string         `json:"path"`
	Pages        []extract.Page `json:"pages"`
	ChunkSize    int            `json:"chunk_size"`
	ChunkOverlap int            `json:"chunk_overlap"`
}

type BuildChunksOutput struct {
	Items []chunk.Item `json:"items"`
}

type EnsureCollectionInput struct {
	Collection string `json:"collection"`
}

type InsertChunksInput struct {
	Collection string       `json:"collection"`
	Items      []chunk.Item `json:"items"`
}

type InsertChunksOutput struct {
	Inserted int `json:"inserted"`
}

type PurgeCollectionInput struct {
	Collection string `json:"collection"`
}
