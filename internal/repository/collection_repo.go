package repository

import (
	"context"
	"time"

	"github.com/haruki/vecdex/internal/domain"
	"gorm.io/gorm"
)

// CollectionRepository handles collection metadata rows. It never touches the
// physical vector tables; that is VectorTableRepository's job. Lifecycle
// operations that need both run inside one transaction via WithTx.
type CollectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new CollectionRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *CollectionRepository: repository instance bound to db.
func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *CollectionRepository) WithTx(tx *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: tx}
}

// Create inserts a new collection metadata row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - collection: metadata row to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *CollectionRepository) Create(ctx context.Context, collection *domain.Collection) error {
	return r.db.WithContext(ctx).Create(collection).Error
}

// GetActiveByName retrieves an active collection by name.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: collection name.
// Returns:
//   - *domain.Collection: matching row, or nil if no active collection exists.
//   - error: non-nil if the lookup fails.
func (r *CollectionRepository) GetActiveByName(ctx context.Context, name string) (*domain.Collection, error) {
	var collection domain.Collection
	err := r.db.WithContext(ctx).
		Where("name = ? AND is_active", name).
		First(&collection).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &collection, nil
}

// List retrieves collection metadata rows ordered by creation time.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - activeOnly: when true, soft-deleted rows are excluded.
// Returns:
//   - []domain.Collection: matching rows.
//   - error: non-nil if the query fails.
func (r *CollectionRepository) List(ctx context.Context, activeOnly bool) ([]domain.Collection, error) {
	var collections []domain.Collection
	query := r.db.WithContext(ctx).Order("created_at")
	if activeOnly {
		query = query.Where("is_active")
	}
	if err := query.Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

// ActiveTableNameTaken reports whether any active collection other than
// excludeID already normalizes to the given storage table name.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tableName: normalized storage table identifier to check.
//   - excludeID: collection ID to ignore (0 to check all).
// Returns:
//   - bool: true if the identifier is claimed.
//   - error: non-nil if the lookup fails.
func (r *CollectionRepository) ActiveTableNameTaken(ctx context.Context, tableName string, excludeID uint) (bool, error) {
	collections, err := r.List(ctx, true)
	if err != nil {
		return false, err
	}
	for _, c := range collections {
		if c.ID != excludeID && domain.StorageTableName(c.Name) == tableName {
			return true, nil
		}
	}
	return false, nil
}

// Rename updates the name of a collection row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: collection ID.
//   - newName: replacement name.
// Returns:
//   - error: non-nil if the update fails.
func (r *CollectionRepository) Rename(ctx context.Context, id uint, newName string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Collection{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": newName, "updated_at": time.Now().UTC()}).Error
}

// UpdateDescription updates the description of a collection row.
func (r *CollectionRepository) UpdateDescription(ctx context.Context, id uint, description string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Collection{}).
		Where("id = ?", id).
		Updates(map[string]any{"description": description, "updated_at": time.Now().UTC()}).Error
}

// SoftDelete marks a collection inactive and stamps deleted_at.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: collection ID.
//   - deletedAt: deletion timestamp.
// Returns:
//   - error: non-nil if the update fails.
func (r *CollectionRepository) SoftDelete(ctx context.Context, id uint, deletedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Collection{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  false,
			"deleted_at": deletedAt,
			"updated_at": deletedAt,
		}).Error
}

// ListExpired retrieves soft-deleted rows whose retention window ended
// before the cutoff.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - cutoff: rows with deleted_at before this instant are expired.
// Returns:
//   - []domain.Collection: expired rows.
//   - error: non-nil if the query fails.
func (r *CollectionRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]domain.Collection, error) {
	var collections []domain.Collection
	err := r.db.WithContext(ctx).
		Where("NOT is_active AND deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&collections).Error
	if err != nil {
		return nil, err
	}
	return collections, nil
}

// HardDelete removes a collection metadata row permanently.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: collection ID.
// Returns:
//   - error: non-nil if the delete fails.
func (r *CollectionRepository) HardDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Collection{}, "id = ?", id).Error
}
