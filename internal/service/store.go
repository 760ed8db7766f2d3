package service

import (
	"context"
	"time"

	"github.com/haruki/vecdex/internal/domain"
)

// CollectionStore is the metadata persistence surface the lifecycle manager
// depends on. *repository.CollectionRepository implements it.
type CollectionStore interface {
	Create(ctx context.Context, collection *domain.Collection) error
	GetActiveByName(ctx context.Context, name string) (*domain.Collection, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Collection, error)
	ActiveTableNameTaken(ctx context.Context, tableName string, excludeID uint) (bool, error)
	Rename(ctx context.Context, id uint, newName string) error
	UpdateDescription(ctx context.Context, id uint, description string) error
	SoftDelete(ctx context.Context, id uint, deletedAt time.Time) error
	ListExpired(ctx context.Context, cutoff time.Time) ([]domain.Collection, error)
	HardDelete(ctx context.Context, id uint) error
}

// VectorTableStore is the physical-table surface the services depend on.
// *repository.VectorTableRepository implements it.
type VectorTableStore interface {
	CreateTable(ctx context.Context, tableName string, dimension int) error
	RenameTable(ctx context.Context, oldName, newName string) error
	DropTable(ctx context.Context, tableName string) error
	TableExists(ctx context.Context, tableName string) (bool, error)
	Insert(ctx context.Context, tableName string, dimension int, record *domain.VectorRecord) error
	Count(ctx context.Context, tableName string) (int64, error)
	List(ctx context.Context, tableName string, limit, offset int) ([]domain.VectorRecord, error)
	DeleteRecord(ctx context.Context, tableName string, id uint) (bool, error)
	SearchNearest(ctx context.Context, tableName string, vector []float32, limit, efSearch int) ([]domain.ScoredRecord, error)
}

// txFunc runs fn with stores bound to one transaction; everything fn does
// commits or rolls back together.
type txFunc func(ctx context.Context, fn func(collections CollectionStore, tables VectorTableStore) error) error
