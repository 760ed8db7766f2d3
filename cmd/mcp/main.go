package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/haruki/vecdex/internal/config"
	"github.com/haruki/vecdex/internal/logger"
	"github.com/haruki/vecdex/internal/mcp"
	"github.com/haruki/vecdex/internal/repository"
	"github.com/haruki/vecdex/internal/service"
)

const serverVersion = "0.2.0"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// stdout carries the MCP protocol; logs must stay off it
	logCfg := logger.DefaultConfig()
	logCfg.Output = os.Stderr
	lg := logger.New(logCfg)
	logger.SetDefaultLogger(lg)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		lg.Fatalf("Failed to initialize database: %v", err)
	}

	collectionRepo := repository.NewCollectionRepository(db)
	vectorTableRepo := repository.NewVectorTableRepository(db)

	embeddingService := service.NewEmbeddingService(&service.EmbeddingConfig{
		Model:         cfg.Embedding.Model,
		APIKey:        cfg.Embedding.APIKey,
		BaseURL:       cfg.Embedding.BaseURL,
		BatchSize:     cfg.Embedding.BatchSize,
		MaxInputChars: cfg.Embedding.MaxInputChars,
	})
	chunker := service.NewChunker(cfg.Chunking.MaxChunkChars, cfg.Chunking.OverlapChars)

	collectionService := service.NewCollectionService(db, collectionRepo, vectorTableRepo, cfg.Retention.Days)
	ingestService := service.NewIngestService(collectionService, vectorTableRepo, embeddingService, chunker)
	searchService := service.NewSearchService(collectionService, vectorTableRepo, embeddingService, chunker)

	server, err := mcp.NewServer(mcp.Config{
		Name:    "vecdex",
		Version: serverVersion,
	}, db, collectionService, ingestService, searchService)
	if err != nil {
		lg.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		lg.Fatalf("MCP server error: %v", err)
	}
}
