package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/haruki/vecdex/internal/domain"
)

// EmbeddingProvider generates raw embeddings for text. The raw width is
// provider-defined; callers run the result through Normalize before storage
// or search.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// EmbeddingService calls an OpenAI-compatible /embeddings endpoint such as
// DashScope's compatible mode.
type EmbeddingService struct {
	client        *resty.Client
	model         string
	maxInputChars int
	batchSize     int
}

// EmbeddingConfig holds configuration for the embedding service.
type EmbeddingConfig struct {
	Model         string
	APIKey        string
	BaseURL       string
	BatchSize     int
	MaxInputChars int
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg *EmbeddingConfig) *EmbeddingService {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	maxInput := cfg.MaxInputChars
	if maxInput <= 0 {
		maxInput = 8192
	}

	return &EmbeddingService{
		client:        client,
		model:         cfg.Model,
		maxInputChars: maxInput,
		batchSize:     batchSize,
	}
}

// Model returns the model name being used.
func (s *EmbeddingService) Model() string {
	return s.model
}

// OpenAI-compatible request/response structures
type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed generates a raw embedding for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", domain.ErrEmbeddingFailure)
	}
	return embeddings[0], nil
}

// EmbedBatch generates raw embeddings for multiple texts, splitting the work
// into provider-sized batches. Result order matches input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: cannot embed empty text", domain.ErrInvalidInput)
		}
		// A chunk over the provider ceiling means the chunker is
		// misconfigured; fail loudly rather than truncate.
		if len(text) > s.maxInputChars {
			return nil, fmt.Errorf("%w: text length %d exceeds provider limit %d",
				domain.ErrInvalidInput, len(text), s.maxInputChars)
		}
	}

	embeddings := make([][]float32, 0, len(texts))
	for begin := 0; begin < len(texts); begin += s.batchSize {
		end := begin + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedOnce(ctx, texts[begin:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

func (s *EmbeddingService) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{
		Model:          s.model,
		Input:          texts,
		EncodingFormat: "float",
	}

	var resp embeddingResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingFailure, resp.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrEmbeddingFailure, httpResp.StatusCode())
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings, expected %d",
			domain.ErrEmbeddingFailure, len(resp.Data), len(texts))
	}

	// Sort by index to ensure correct order
	embeddings := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index >= 0 && item.Index < len(embeddings) {
			embeddings[item.Index] = item.Embedding
		}
	}
	for i, e := range embeddings {
		if e == nil {
			return nil, fmt.Errorf("%w: missing embedding at index %d", domain.ErrEmbeddingFailure, i)
		}
	}
	return embeddings, nil
}
