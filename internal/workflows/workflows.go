package workflows

import (
	"path/filepath"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"docindex/internal/activities"
)

const QueryGetSeedProgress = "GetSeedProgress"

// SeedCorpusWorkflow ingests every PDF in a directory into the given
// collection, fanning out one child workflow per document with bounded
// concurrency. One bad document fails its child, not the batch.
func SeedCorpusWorkflow(ctx workflow.Context, input SeedCorpusInput) (SeedCorpusResult, error) {
	progress := SeedCorpusProgress{
		Collection:  input.Collection,
		PerDocument: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetSeedProgress, func() (SeedCorpusProgress, error) {
		return progress, nil
	}); err != nil {
		return SeedCorpusResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var listOut activities.ListPDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPDFsActivity", activities.ListPDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return SeedCorpusResult{}, err
	}
	paths := listOut.Paths
	progress.Total = len(paths)

	if err := workflow.ExecuteActivity(ctx, "EnsureCollectionActivity", activities.EnsureCollectionInput{Collection: input.Collection}).Get(ctx, nil); err != nil {
		return SeedCorpusResult{}, err
	}

	maxChildren := input.MaxChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}

	result := SeedCorpusResult{}
	for i := 0; i < len(paths); i += maxChildren {
		end := i + maxChildren
		if end > len(paths) {
			end = len(paths)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		childPaths := make([]string, 0, end-i)
		for _, path := range paths[i:end] {
			progress.PerDocument[path] = "processing"
			cwo := workflow.ChildWorkflowOptions{
				WorkflowID: "seed-doc-" + sanitizeID(input.Collection) + "-" + sanitizeID(filepath.Base(path)),
			}
			childCtx := workflow.WithChildOptions(ctx, cwo)
			f := workflow.ExecuteChildWorkflow(childCtx, DocumentIngestWorkflow, DocumentIngestInput{
				Path:         path,
				Collection:   input.Collection,
				ChunkSize:    input.ChunkSize,
				ChunkOverlap: input.ChunkOverlap,
			})
			futures = append(futures, f)
			childPaths = append(childPaths, path)
		}

		for idx, f := range futures {
			var childOut DocumentIngestResult
			path := childPaths[idx]
			if err := f.Get(ctx, &childOut); err != nil {
				result.Failed++
				progress.Failed++
				progress.PerDocument[path] = "failed"
				continue
			}
			result.Documents++
			result.Chunks += childOut.Chunks
			result.Pages += childOut.Pages
			progress.Done++
			progress.PerDocument[path] = "done"
		}
	}
	return result, nil
}

// DocumentIngestWorkflow runs extract → chunk → insert for one document.
func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (DocumentIngestResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var pagesOut activities.ExtractPagesOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractPagesActivity", activities.ExtractPagesInput{Path: input.Path}).Get(ctx, &pagesOut); err != nil {
		return DocumentIngestResult{}, err
	}
	if len(pagesOut.Pages) == 0 {
		return DocumentIngestResult{}, nil
	}

	var chunksOut activities.BuildChunksOutput
	if err := workflow.ExecuteActivity(ctx, "BuildChunksActivity", activities.BuildChunksInput{
		Path:         input.Path,
		Pages:        pagesOut.Pages,
		ChunkSize:    input.ChunkSize,
		ChunkOverlap: input.ChunkOverlap,
	}).Get(ctx, &chunksOut); err != nil {
		return DocumentIngestResult{}, err
	}
	if len(chunksOut.Items) == 0 {
		return DocumentIngestResult{Pages: len(pagesOut.Pages)}, nil
	}

	var insertOut activities.InsertChunksOutput
	if err := workflow.ExecuteActivity(ctx, "InsertChunksActivity", activities.InsertChunksInput{
		Collection: input.Collection,
		Items:      chunksOut.Items,
	}).Get(ctx, &insertOut); err != nil {
		return DocumentIngestResult{}, err
	}
	return DocumentIngestResult{Chunks: insertOut.Inserted, Pages: len(pagesOut.Pages)}, nil
}

// PurgeCollectionWorkflow drops a collection. Administrative only.
func PurgeCollectionWorkflow(ctx workflow.Context, input PurgeCollectionInput) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	return workflow.ExecuteActivity(ctx, "PurgeCollectionActivity", activities.PurgeCollectionInput{Collection: input.Collection}).Get(ctx, nil)
}

func sanitizeID(s string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(s) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' || ch == '.' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('-')
		}
	}
	return b.String()
}
