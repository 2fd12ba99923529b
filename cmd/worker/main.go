package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"docindex/internal/activities"
	"docindex/internal/config"
	"docindex/internal/embed"
	"docindex/internal/logger"
	"docindex/internal/store"
	"docindex/internal/workflows"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	db, err := store.NewDB(ctx, cfg.PostgresURL)
	cancel()
	if err != nil {
		lg.Fatal("connect store", "error", err)
	}
	defer db.Close()
	readyCtx, cancelReady := context.WithTimeout(context.Background(), cfg.ReadyTimeout+time.Second)
	err = db.WaitReady(readyCtx, cfg.ReadyTimeout, cfg.ReadyInterval)
	cancelReady()
	if err != nil {
		lg.Fatal("store not ready", "error", err)
	}
	if err := db.Init(context.Background()); err != nil {
		lg.Fatal("init store", "error", err)
	}

	embedder, err := embed.New(cfg.EmbedProvider, cfg.EmbedDim)
	if err != nil {
		lg.Fatal("configure embedder", "error", err)
	}
	st := store.New(db.Pool, embedder, store.Options{
		Dim:       cfg.EmbedDim,
		Mode:      cfg.SearchMode,
		Alpha:     cfg.HybridAlpha,
		ScanBatch: cfg.ScanBatch,
		ScanCap:   cfg.ScanCap,
	})

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, lg, st))

	lg.Info("docindex worker running",
		"temporal", cfg.TemporalAddress,
		"queue", cfg.TemporalTaskQueue,
		"embed_provider", cfg.EmbedProvider,
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		lg.Fatal("worker stopped", "error", err)
	}
}
