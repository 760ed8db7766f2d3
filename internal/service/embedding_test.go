package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haruki/vecdex/internal/domain"
)

func newEmbeddingTestServer(t *testing.T, dimension int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		*calls++

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		var data []item
		for i := range req.Input {
			vec := make([]float32, dimension)
			vec[0] = float32(i + 1)
			data = append(data, item{Embedding: vec, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestEmbedBatchOrderAndBatching(t *testing.T) {
	calls := 0
	ts := newEmbeddingTestServer(t, 8, &calls)
	defer ts.Close()

	s := NewEmbeddingService(&EmbeddingConfig{
		Model:     "test-model",
		APIKey:    "key",
		BaseURL:   ts.URL,
		BatchSize: 2,
	})

	texts := []string{"one", "two", "three", "four", "five"}
	embeddings, err := s.EmbedBatch(t.Context(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(embeddings) != len(texts) {
		t.Fatalf("got %d embeddings, want %d", len(embeddings), len(texts))
	}
	if calls != 3 {
		t.Errorf("provider called %d times, want 3 with batch size 2", calls)
	}
	// Within each batch the first component encodes the in-batch position.
	if embeddings[0][0] != 1 || embeddings[1][0] != 2 || embeddings[2][0] != 1 {
		t.Errorf("batch ordering broken: %v %v %v", embeddings[0][0], embeddings[1][0], embeddings[2][0])
	}
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	s := NewEmbeddingService(&EmbeddingConfig{Model: "m", BaseURL: "http://unused"})

	_, err := s.Embed(t.Context(), "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEmbedRejectsOversizedText(t *testing.T) {
	s := NewEmbeddingService(&EmbeddingConfig{Model: "m", BaseURL: "http://unused", MaxInputChars: 10})

	_, err := s.Embed(t.Context(), strings.Repeat("a", 11))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEmbedProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer ts.Close()

	s := NewEmbeddingService(&EmbeddingConfig{Model: "m", BaseURL: ts.URL})

	_, err := s.Embed(t.Context(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingFailure) {
		t.Fatalf("err = %v, want ErrEmbeddingFailure", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("err %q should carry the provider message", err)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingResponse{})
	}))
	defer ts.Close()

	s := NewEmbeddingService(&EmbeddingConfig{Model: "m", BaseURL: ts.URL})

	_, err := s.Embed(t.Context(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingFailure) {
		t.Errorf("err = %v, want ErrEmbeddingFailure", err)
	}
}
