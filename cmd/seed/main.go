package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"docindex/internal/config"
	"docindex/internal/logger"
	"docindex/internal/workflows"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	dir := flag.String("dir", cfg.SeedDir, "directory of PDFs to seed")
	collection := flag.String("collection", cfg.SeedCollection, "target collection")
	purge := flag.Bool("purge", false, "drop the collection instead of seeding it")
	flag.Parse()

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		lg.Fatal("dial temporal", "error", err)
	}
	defer c.Close()

	ctx := context.Background()
	if *purge {
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:                                       fmt.Sprintf("purge-%s", *collection),
			TaskQueue:                                cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
		}, workflows.PurgeCollectionWorkflow, workflows.PurgeCollectionInput{Collection: *collection})
		if err != nil {
			lg.Fatal("start purge workflow", "error", err)
		}
		if err := run.Get(ctx, nil); err != nil {
			lg.Fatal("purge workflow failed", "error", err)
		}
		lg.Info("collection purged", "collection", *collection)
		return
	}

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                                       fmt.Sprintf("seed-%s", *collection),
		TaskQueue:                                cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.SeedCorpusWorkflow, workflows.SeedCorpusInput{
		InputDir:     *dir,
		Collection:   *collection,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		MaxChildren:  cfg.SeedMaxChildren,
	})
	if err != nil {
		lg.Fatal("start seed workflow", "error", err)
	}
	var result workflows.SeedCorpusResult
	if err := run.Get(ctx, &result); err != nil {
		lg.Fatal("seed workflow failed", "error", err)
	}
	lg.Info("seed complete",
		"collection", *collection,
		"documents", result.Documents,
		"chunks", result.Chunks,
		"pages", result.Pages,
		"failed", result.Failed,
	)
}
