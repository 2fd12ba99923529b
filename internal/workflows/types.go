package workflows

type SeedCorpusInput struct {
	InputDir     string `json:"input_dir"`
	Collection   string `json:"collection"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	MaxChildren  int    `json:"max_children"`
}

type SeedCorpusResult struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Pages     int `json:"pages"`
	Failed    int `json:"failed"`
}

type SeedCorpusProgress struct {
	Collection  string            `json:"collection"`
	Total       int               `json:"total"`
	Done        int               `json:"done"`
	Failed      int               `json:"failed"`
	PerDocument map[string]string `json:"per_document"`
}

type DocumentIngestInput struct {
	Path         string `json:"path"`
	Collection   string `json:"collection"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type DocumentIngestResult struct {
	Chunks int `json:"chunks"`
	Pages  int `json:"pages"`
}

type PurgeCollectionInput struct {
	Collection string `json:"collection"`
}
