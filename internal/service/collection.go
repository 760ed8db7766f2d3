package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haruki/vecdex/internal/domain"
	"github.com/haruki/vecdex/internal/logger"
	"github.com/haruki/vecdex/internal/repository"
	"gorm.io/gorm"
)

// CollectionService drives the collection lifecycle: create, rename, delete,
// and the retention cleanup that reclaims expired soft-deleted collections.
// Every operation that touches both the metadata row and the physical table
// runs in a single transaction so the two can never drift apart.
type CollectionService struct {
	collections   CollectionStore
	tables        VectorTableStore
	runTx         txFunc
	retentionDays int
	now           func() time.Time
}

// NewCollectionService creates a new CollectionService.
// Parameters:
//   - db: GORM handle used to open lifecycle transactions.
//   - collections: metadata repository.
//   - tables: physical table repository.
//   - retentionDays: days a soft-deleted collection survives before cleanup.
// Returns:
//   - *CollectionService: service instance.
func NewCollectionService(db *gorm.DB, collections *repository.CollectionRepository, tables *repository.VectorTableRepository, retentionDays int) *CollectionService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &CollectionService{
		collections: collections,
		tables:      tables,
		runTx: func(ctx context.Context, fn func(CollectionStore, VectorTableStore) error) error {
			return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return fn(collections.WithTx(tx), tables.WithTx(tx))
			})
		},
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// CollectionStats summarizes one collection for status surfaces.
type CollectionStats struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Dimension   int        `json:"dimension"`
	TableName   string     `json:"table_name"`
	RecordCount int64      `json:"record_count"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// DeletePreview describes what a delete would remove. It is returned when the
// caller has not confirmed the deletion.
type DeletePreview struct {
	Name        string `json:"name"`
	TableName   string `json:"table_name"`
	RecordCount int64  `json:"record_count"`
	Confirmed   bool   `json:"confirmed"`
}

// Create provisions a new collection: a metadata row plus its physical vector
// table, atomically. Expired soft-deleted collections are reclaimed first so
// a name whose retention just lapsed becomes available immediately.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: collection name.
//   - description: optional free-form description.
//   - dimension: vector width for the new collection.
// Returns:
//   - *domain.Collection: the created metadata row.
//   - error: ErrInvalidInput, ErrInvalidDimension, ErrNameConflict, or a
//     wrapped storage failure.
func (s *CollectionService) Create(ctx context.Context, name, description string, dimension int) (*domain.Collection, error) {
	if err := domain.ValidateCollectionName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateDimension(dimension); err != nil {
		return nil, err
	}

	if _, err := s.RunCleanup(ctx); err != nil {
		logger.CtxWarn(ctx, "retention cleanup before create failed: %v", err)
	}

	existing, err := s.collections.GetActiveByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: collection %q already exists", domain.ErrNameConflict, name)
	}

	tableName := domain.StorageTableName(name)
	taken, err := s.collections.ActiveTableNameTaken(ctx, tableName, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if taken {
		return nil, fmt.Errorf("%w: collection name %q maps to storage table %q which is already in use",
			domain.ErrNameConflict, name, tableName)
	}

	collection := &domain.Collection{
		Name:        name,
		Description: description,
		Dimension:   dimension,
		IsActive:    true,
	}

	err = s.runTx(ctx, func(collections CollectionStore, tables VectorTableStore) error {
		if err := collections.Create(ctx, collection); err != nil {
			return err
		}
		return tables.CreateTable(ctx, tableName, dimension)
	})
	if err != nil {
		// The partial unique index on active names is the tie-breaker for
		// racing creates of the same name; a duplicate relation is the same
		// race on two names that normalize to one table. Both are conflicts,
		// not storage failures.
		if isUniqueViolation(err) || isDuplicateRelation(err) {
			return nil, fmt.Errorf("%w: collection %q already exists", domain.ErrNameConflict, name)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	logger.CtxInfo(ctx, "created collection %q (dimension=%d, table=%s)", name, dimension, tableName)
	return collection, nil
}

// Get retrieves an active collection by name.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: collection name.
// Returns:
//   - *domain.Collection: matching row.
//   - error: ErrNotFound if no active collection has that name.
func (s *CollectionService) Get(ctx context.Context, name string) (*domain.Collection, error) {
	collection, err := s.collections.GetActiveByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if collection == nil {
		return nil, fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
	}
	return collection, nil
}

// List returns collections ordered by creation time, reclaiming expired
// soft-deleted ones first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - includeDeleted: when true, soft-deleted rows still inside retention
//     are included.
// Returns:
//   - []domain.Collection: matching rows.
//   - error: non-nil if the query fails.
func (s *CollectionService) List(ctx context.Context, includeDeleted bool) ([]domain.Collection, error) {
	if _, err := s.RunCleanup(ctx); err != nil {
		logger.CtxWarn(ctx, "retention cleanup before list failed: %v", err)
	}

	collections, err := s.collections.List(ctx, !includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return collections, nil
}

// Rename changes a collection's name and moves its physical table to the new
// storage identifier in the same transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - oldName: current collection name.
//   - newName: replacement name.
// Returns:
//   - *domain.Collection: the updated metadata row.
//   - error: ErrNotFound, ErrInvalidInput, ErrNameConflict, or a wrapped
//     storage failure.
func (s *CollectionService) Rename(ctx context.Context, oldName, newName string) (*domain.Collection, error) {
	if err := domain.ValidateCollectionName(newName); err != nil {
		return nil, err
	}

	collection, err := s.Get(ctx, oldName)
	if err != nil {
		return nil, err
	}
	if oldName == newName {
		return collection, nil
	}

	existing, err := s.collections.GetActiveByName(ctx, newName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if existing != nil && existing.ID != collection.ID {
		return nil, fmt.Errorf("%w: collection %q already exists", domain.ErrNameConflict, newName)
	}

	oldTable := domain.StorageTableName(oldName)
	newTable := domain.StorageTableName(newName)
	if oldTable != newTable {
		taken, err := s.collections.ActiveTableNameTaken(ctx, newTable, collection.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
		}
		if taken {
			return nil, fmt.Errorf("%w: collection name %q maps to storage table %q which is already in use",
				domain.ErrNameConflict, newName, newTable)
		}
	}

	err = s.runTx(ctx, func(collections CollectionStore, tables VectorTableStore) error {
		if err := collections.Rename(ctx, collection.ID, newName); err != nil {
			return err
		}
		if oldTable != newTable {
			return tables.RenameTable(ctx, oldTable, newTable)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) || isDuplicateRelation(err) {
			return nil, fmt.Errorf("%w: collection %q already exists", domain.ErrNameConflict, newName)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	logger.CtxInfo(ctx, "renamed collection %q to %q", oldName, newName)
	collection.Name = newName
	return collection, nil
}

// UpdateDescription replaces a collection's description.
func (s *CollectionService) UpdateDescription(ctx context.Context, name, description string) (*domain.Collection, error) {
	collection, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.collections.UpdateDescription(ctx, collection.ID, description); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	collection.Description = description
	return collection, nil
}

// Delete soft-deletes a collection and drops its physical table. Without
// confirm it only reports what would be removed. The metadata row stays,
// inactive, until retention cleanup reclaims it; the vectors are gone the
// moment the delete commits.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: collection name.
//   - confirm: when false, return a preview instead of deleting.
// Returns:
//   - *DeletePreview: what was (or would be) removed.
//   - error: ErrNotFound or a wrapped storage failure.
func (s *CollectionService) Delete(ctx context.Context, name string, confirm bool) (*DeletePreview, error) {
	collection, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	tableName := domain.StorageTableName(collection.Name)
	count, err := s.tables.Count(ctx, tableName)
	if err != nil {
		logger.CtxWarn(ctx, "could not count records in %s before delete: %v", tableName, err)
		count = -1
	}

	preview := &DeletePreview{
		Name:        collection.Name,
		TableName:   tableName,
		RecordCount: count,
		Confirmed:   confirm,
	}
	if !confirm {
		return preview, nil
	}

	deletedAt := s.now().UTC()
	err = s.runTx(ctx, func(collections CollectionStore, tables VectorTableStore) error {
		if err := collections.SoftDelete(ctx, collection.ID, deletedAt); err != nil {
			return err
		}
		return tables.DropTable(ctx, tableName)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	logger.CtxInfo(ctx, "deleted collection %q (%d records, retained %d days)",
		name, count, s.retentionDays)
	return preview, nil
}

// Stats returns counts and metadata for one active collection.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: collection name.
// Returns:
//   - *CollectionStats: summary including live record count.
//   - error: ErrNotFound or a wrapped storage failure.
func (s *CollectionService) Stats(ctx context.Context, name string) (*CollectionStats, error) {
	collection, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	tableName := domain.StorageTableName(collection.Name)
	count, err := s.tables.Count(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	return &CollectionStats{
		Name:        collection.Name,
		Description: collection.Description,
		Dimension:   collection.Dimension,
		TableName:   tableName,
		RecordCount: count,
		IsActive:    collection.IsActive,
		CreatedAt:   collection.CreatedAt,
		UpdatedAt:   collection.UpdatedAt,
		DeletedAt:   collection.DeletedAt,
	}, nil
}

// isUniqueViolation matches Postgres unique_violation (SQLSTATE 23505) without
// depending on the driver's error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}

// isDuplicateRelation matches Postgres duplicate_table (SQLSTATE 42P07), the
// failure mode when racing creates collide on the physical table rather than
// the metadata name.
func isDuplicateRelation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 42P07") || strings.Contains(msg, "already exists")
}
