package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"segrag/internal/app"
	"segrag/internal/config"
)

func main() {
	docsDir := flag.String("docs", "./docs", "Directory with documents to index")
	dataDir := flag.String("data", "./data", "Data directory for index state")
	preset := flag.String("preset", "", "RSE preset: balanced, precise or comprehensive")
	outputFile := flag.String("output", "", "Append query reports to file (optional)")
	forceReindex := flag.Bool("force-reindex", false, "Drop existing index state and reindex everything")
	flag.Parse()

	if _, err := os.Stat(*docsDir); os.IsNotExist(err) {
		log.Fatalf("Error: docs directory not found: %s", *docsDir)
	}

	// Flags win over the environment.
	os.Setenv("DOCS_DIR", *docsDir)
	os.Setenv("DATA_DIR", *dataDir)
	if *preset != "" {
		os.Setenv("RSE_PRESET", *preset)
	}
	if *forceReindex {
		os.Setenv("FORCE_REINDEX", "true")
	}

	// Load .env (optional).
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.Init(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	cfg.MetadataFile = filepath.Join(cfg.DataDir, "metadata.json")
	cfg.DBFile = filepath.Join(cfg.DataDir, "vectors.gob.gz")
	cfg.ChunksFile = filepath.Join(cfg.DataDir, "chunks.json")

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("docs_dir", cfg.DocsDir),
		zap.String("data_dir", cfg.DataDir))

	a, err := app.New(&cfg, logger)
	if err != nil {
		logger.Fatal("failed to create app", zap.Error(err))
	}

	if *outputFile != "" {
		a.SetOutputPath(*outputFile)
	}

	if err := a.Init(); err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := a.IndexDocuments(ctx); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}

	if err := a.Run(ctx); err != nil {
		logger.Fatal("app stopped with error", zap.Error(err))
	}
}
