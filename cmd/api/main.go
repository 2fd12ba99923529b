package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docindex/internal/api"
	"docindex/internal/config"
	"docindex/internal/embed"
	"docindex/internal/ingest"
	"docindex/internal/logger"
	"docindex/internal/search"
	"docindex/internal/store"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	db, err := store.NewDB(connectCtx, cfg.PostgresURL)
	cancel()
	if err != nil {
		lg.Fatal("connect store", "error", err)
	}
	defer db.Close()
	if err := db.WaitReady(ctx, cfg.ReadyTimeout, cfg.ReadyInterval); err != nil {
		lg.Fatal("store not ready", "error", err)
	}
	if err := db.Init(ctx); err != nil {
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
	coord := search.NewCoordinator(st)
	ing := ingest.New(st, lg, cfg.ChunkSize, cfg.ChunkOverlap)

	srv := api.NewServer(cfg, lg, db, st, coord, ing)
	lg.Info("docindex api listening",
		"addr", cfg.APIAddr,
		"search_mode", cfg.SearchMode,
		"embed_provider", cfg.EmbedProvider,
	)
	if err := srv.ListenAndServe(ctx); err != nil {
		lg.Fatal("api server", "error", err)
	}
}
