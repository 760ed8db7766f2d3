package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/haruki/vecdex/internal/config"
	"github.com/haruki/vecdex/internal/logger"
	"github.com/haruki/vecdex/internal/repository"
	"github.com/haruki/vecdex/internal/service"
	"gorm.io/gorm"
)

const usage = `vecdex - collection lifecycle and similarity search

Usage: vecdex <command> [flags]

Commands:
  create         Create a collection
  list           List collections
  show           Show one collection
  rename         Rename a collection
  describe       Update a collection's description
  delete         Delete a collection (preview without -confirm)
  stats          Show collection statistics
  add            Embed and store text in a collection
  records        List stored records
  delete-record  Delete one stored record
  search         Similarity search in a collection
  ingest         Bulk-ingest documents from S3-compatible storage
  cleanup        Reclaim expired soft-deleted collections
  status         Check database and pgvector health

Run "vecdex <command> -h" for command flags.
`

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       envOr("LOG_LEVEL", "warn"),
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "vecdex-cli",
	})
	logger.SetDefaultLogger(appLogger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired services every subcommand needs.
type app struct {
	cfg         *config.Config
	db          *gorm.DB
	collections *service.CollectionService
	ingest      *service.IngestService
	search      *service.SearchService
}

func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	collectionRepo := repository.NewCollectionRepository(db)
	vectorTableRepo := repository.NewVectorTableRepository(db)

	embedder := service.NewEmbeddingService(&service.EmbeddingConfig{
		Model:         cfg.Embedding.Model,
		APIKey:        cfg.Embedding.APIKey,
		BaseURL:       cfg.Embedding.BaseURL,
		BatchSize:     cfg.Embedding.BatchSize,
		MaxInputChars: cfg.Embedding.MaxInputChars,
	})
	chunker := service.NewChunker(cfg.Chunking.MaxChunkChars, cfg.Chunking.OverlapChars)

	collections := service.NewCollectionService(db, collectionRepo, vectorTableRepo, cfg.Retention.Days)

	return &app{
		cfg:         cfg,
		db:          db,
		collections: collections,
		ingest:      service.NewIngestService(collections, vectorTableRepo, embedder, chunker),
		search:      service.NewSearchService(collections, vectorTableRepo, embedder, chunker),
	}, nil
}

func run(ctx context.Context, command string, args []string) error {
	switch command {
	case "create":
		return cmdCreate(ctx, args)
	case "list":
		return cmdList(ctx, args)
	case "show":
		return cmdShow(ctx, args)
	case "rename":
		return cmdRename(ctx, args)
	case "describe":
		return cmdDescribe(ctx, args)
	case "delete":
		return cmdDelete(ctx, args)
	case "stats":
		return cmdStats(ctx, args)
	case "add":
		return cmdAdd(ctx, args)
	case "records":
		return cmdRecords(ctx, args)
	case "delete-record":
		return cmdDeleteRecord(ctx, args)
	case "search":
		return cmdSearch(ctx, args)
	case "ingest":
		return cmdIngest(ctx, args)
	case "cleanup":
		return cmdCleanup(ctx, args)
	case "status":
		return cmdStatus(ctx, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// newFlagSet creates a flag set with the shared -config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "Path to config file")
	return fs, configPath
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
