package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haruki/vecdex/internal/api"
	"github.com/haruki/vecdex/internal/api/middleware"
	"github.com/haruki/vecdex/internal/config"
	"github.com/haruki/vecdex/internal/logger"
	"github.com/haruki/vecdex/internal/repository"
	"github.com/haruki/vecdex/internal/service"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
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

	router := api.SetupRouter(api.RouterDeps{
		DB:          db,
		Collections: collectionService,
		Ingest:      ingestService,
		Search:      searchService,
		Log:         log,
		Mode:        cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Infof("Starting API server on port %d (mode=%s)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
