package service

import (
	"context"
	"fmt"
	"time"

	"github.com/haruki/vecdex/internal/domain"
	"github.com/haruki/vecdex/internal/logger"
)

// Precision levels trade recall for latency by widening the HNSW search
// breadth. They map to hnsw.ef_search, set per-query.
const (
	PrecisionFast     = "fast"
	PrecisionBalanced = "balanced"
	PrecisionPrecise  = "precise"
)

var efSearchByPrecision = map[string]int{
	PrecisionFast:     40,
	PrecisionBalanced: 100,
	PrecisionPrecise:  400,
}

// EfSearchForPrecision maps a named precision level to its HNSW search
// breadth. Unknown or empty levels fall back to balanced.
func EfSearchForPrecision(precision string) int {
	if ef, ok := efSearchByPrecision[precision]; ok {
		return ef
	}
	return efSearchByPrecision[PrecisionBalanced]
}

// SearchService answers similarity queries against a collection. The query
// text goes through the same chunk/embed/normalize pipeline as ingested
// content, so stored and query vectors share one geometry.
type SearchService struct {
	collections *CollectionService
	tables      VectorTableStore
	embedder    EmbeddingProvider
	chunker     *Chunker
}

// SearchOptions tunes one search call. Zero values take configured defaults.
type SearchOptions struct {
	Limit         int
	Precision     string
	MinSimilarity float64
}

// SearchResult is one scored match.
type SearchResult struct {
	ID         uint           `json:"id"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   domain.JSONMap `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewSearchService creates a new SearchService.
func NewSearchService(collections *CollectionService, tables VectorTableStore, embedder EmbeddingProvider, chunker *Chunker) *SearchService {
	return &SearchService{
		collections: collections,
		tables:      tables,
		embedder:    embedder,
		chunker:     chunker,
	}
}

// Search embeds the query and returns the most similar records in the named
// collection, ordered by similarity descending.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - collectionName: target collection; must be active.
//   - query: natural-language query text.
//   - opts: limit, precision level, and similarity floor.
// Returns:
//   - []SearchResult: matches at or above the similarity floor.
//   - error: ErrNotFound, ErrInvalidInput, ErrEmbeddingFailure, or a wrapped
//     storage failure.
func (s *SearchService) Search(ctx context.Context, collectionName, query string, opts SearchOptions) ([]SearchResult, error) {
	if err := domain.ValidateSearchQuery(query); err != nil {
		return nil, err
	}
	if opts.Limit == 0 {
		opts.Limit = 10
	}
	if err := domain.ValidateLimit(opts.Limit); err != nil {
		return nil, err
	}

	collection, err := s.collections.Get(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedQuery(ctx, query, collection.Dimension)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tableName := domain.StorageTableName(collection.Name)
	scored, err := s.tables.SearchNearest(ctx, tableName, vector, opts.Limit, EfSearchForPrecision(opts.Precision))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, rec := range scored {
		if rec.Similarity < opts.MinSimilarity {
			continue
		}
		results = append(results, SearchResult{
			ID:         rec.ID,
			Content:    rec.Content,
			Similarity: rec.Similarity,
			Metadata:   rec.ExtraMetadata,
			CreatedAt:  rec.CreatedAt,
		})
	}

	logger.CtxDebug(ctx, "search in %q returned %d/%d results in %s",
		collectionName, len(results), len(scored), time.Since(start))
	return results, nil
}

// embedQuery turns query text into a unit-norm vector of the collection's
// dimension. Long queries are truncated to their first chunk; a query that
// needs more than one chunk has no single meaningful embedding.
func (s *SearchService) embedQuery(ctx context.Context, query string, dimension int) ([]float32, error) {
	text := query
	for chunk := range s.chunker.Split(query) {
		text = chunk.Content
		break
	}

	raw, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return Normalize(raw, dimension)
}
