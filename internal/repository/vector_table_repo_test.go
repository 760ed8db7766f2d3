package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/haruki/vecdex/internal/domain"
)

func TestInsertRejectsWrongVectorWidth(t *testing.T) {
	// The guard fires before any database work, so a nil handle is fine here.
	repo := NewVectorTableRepository(nil)

	record := &domain.VectorRecord{
		Content: "hello",
		Vector:  []float32{0.1, 0.2, 0.3},
	}
	err := repo.Insert(context.Background(), "vectors_docs", 4, record)
	if !errors.Is(err, domain.ErrInvalidDimension) {
		t.Fatalf("Insert with 3-wide vector into dimension-4 table: got %v, want ErrInvalidDimension", err)
	}
}
