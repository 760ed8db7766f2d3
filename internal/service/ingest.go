package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/haruki/vecdex/internal/domain"
	"github.com/haruki/vecdex/internal/logger"
	"github.com/haruki/vecdex/internal/storage"
)

// IngestService turns text into stored vector records: chunk, embed in
// batches, normalize to the collection's dimension, insert. Multi-chunk
// documents get chunk provenance stamped into each record's metadata.
type IngestService struct {
	collections *CollectionService
	tables      VectorTableStore
	embedder    EmbeddingProvider
	chunker     *Chunker
}

// NewIngestService creates a new IngestService.
func NewIngestService(collections *CollectionService, tables VectorTableStore, embedder EmbeddingProvider, chunker *Chunker) *IngestService {
	return &IngestService{
		collections: collections,
		tables:      tables,
		embedder:    embedder,
		chunker:     chunker,
	}
}

// AddText ingests one piece of text into a collection. Text longer than the
// chunk budget becomes several records sharing the caller's metadata plus
// chunk_index and total_chunks.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - collectionName: target collection; must be active.
//   - content: raw text to ingest.
//   - metadata: caller-supplied metadata copied onto every record; may be nil.
// Returns:
//   - []domain.VectorRecord: the records created, in chunk order.
//   - error: ErrNotFound, ErrInvalidInput, ErrEmbeddingFailure,
//     ErrDegenerateVector, ErrUnsupportedReduction, or a wrapped storage
//     failure.
func (s *IngestService) AddText(ctx context.Context, collectionName, content string, metadata domain.JSONMap) ([]domain.VectorRecord, error) {
	collection, err := s.collections.Get(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.SplitAll(content)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: content is empty", domain.ErrInvalidInput)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	raw, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	tableName := domain.StorageTableName(collection.Name)
	records := make([]domain.VectorRecord, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := Normalize(raw[i], collection.Dimension)
		if err != nil {
			return nil, err
		}

		record := domain.VectorRecord{
			Content:       chunk.Content,
			Vector:        vector,
			ExtraMetadata: chunkMetadata(metadata, chunk.Index, len(chunks)),
		}
		if err := s.tables.Insert(ctx, tableName, collection.Dimension, &record); err != nil {
			if errors.Is(err, domain.ErrInvalidDimension) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
		}
		records = append(records, record)
	}

	logger.CtxInfo(ctx, "ingested %d chunk(s) into %q", len(records), collectionName)
	return records, nil
}

// ListRecords pages through a collection's stored records, newest last.
func (s *IngestService) ListRecords(ctx context.Context, collectionName string, limit, offset int) ([]domain.VectorRecord, error) {
	collection, err := s.collections.Get(ctx, collectionName)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.tables.List(ctx, domain.StorageTableName(collection.Name), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return records, nil
}

// DeleteRecord removes one stored record from a collection.
func (s *IngestService) DeleteRecord(ctx context.Context, collectionName string, id uint) error {
	collection, err := s.collections.Get(ctx, collectionName)
	if err != nil {
		return err
	}

	deleted, err := s.tables.DeleteRecord(ctx, domain.StorageTableName(collection.Name), id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if !deleted {
		return fmt.Errorf("%w: record %d in collection %q", domain.ErrNotFound, id, collectionName)
	}
	return nil
}

// chunkMetadata copies the caller's metadata and stamps chunk provenance.
// Single-chunk content keeps the metadata untouched.
func chunkMetadata(base domain.JSONMap, index, total int) domain.JSONMap {
	if total <= 1 {
		if base == nil {
			return domain.JSONMap{}
		}
		return base
	}
	out := make(domain.JSONMap, len(base)+2)
	maps.Copy(out, base)
	out["chunk_index"] = index
	out["total_chunks"] = total
	return out
}

// IngestReport summarizes a bulk ingest from a document source.
type IngestReport struct {
	Documents int      `json:"documents"`
	Records   int      `json:"records"`
	Failed    []string `json:"failed,omitempty"`
}

// IngestFromSource reads every object under prefix from a document source and
// ingests each as one text, stamping the object key as source metadata. A
// document that fails to read or embed is reported and skipped; the rest of
// the batch continues.
func (s *IngestService) IngestFromSource(ctx context.Context, collectionName string, source storage.DocumentSource, prefix string) (*IngestReport, error) {
	keys, err := source.ListKeys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	report := &IngestReport{}
	for _, key := range keys {
		body, err := source.Fetch(ctx, key)
		if err != nil {
			logger.CtxWarn(ctx, "bulk ingest: fetch %s failed: %v", key, err)
			report.Failed = append(report.Failed, key)
			continue
		}
		content, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			logger.CtxWarn(ctx, "bulk ingest: read %s failed: %v", key, err)
			report.Failed = append(report.Failed, key)
			continue
		}

		records, err := s.AddText(ctx, collectionName, string(content), domain.JSONMap{"source": key})
		if err != nil {
			logger.CtxWarn(ctx, "bulk ingest: %s failed: %v", key, err)
			report.Failed = append(report.Failed, key)
			continue
		}
		report.Documents++
		report.Records += len(records)
	}

	logger.CtxInfo(ctx, "bulk ingest into %q: %d documents, %d records, %d failed",
		collectionName, report.Documents, report.Records, len(report.Failed))
	return report, nil
}
