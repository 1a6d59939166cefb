package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"plano/internal/ai"
	"plano/internal/catalog"
	"plano/internal/config"
	"plano/internal/listener"
	"plano/internal/logging"
	"plano/internal/pipeline"
	"plano/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log, err := logging.New(cfg.LogDebug)
	must(err)
	defer func() { _ = log.Sync() }()

	ref, err := catalog.Load(cfg.CatalogPath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	var gen pipeline.ActionGenerator
	if cfg.GeminiAPIKey != "" {
		gen = ai.NewClient(cfg, ref, log)
	}
	importer := pipeline.NewImporter(cfg, ref, gen, log)
	processor := pipeline.NewProcessingService(db, cfg, importer, log)
	svc := listener.NewService(db, cfg, processor, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
