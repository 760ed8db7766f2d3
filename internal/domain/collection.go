package domain

import (
	"regexp"
	"strings"
	"time"
)

// Collection represents a named vector store backed by its own physical table.
// The metadata row and the physical table move in lock-step: while a
// collection is active exactly one table exists for it; after a soft delete
// the table is gone and only this row remains until retention expires.
type Collection struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"type:text;not null;index:idx_collections_name" json:"name"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Dimension   int        `gorm:"not null" json:"dimension"`
	IsActive    bool       `gorm:"not null;default:true;index:idx_collections_active" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// TableName returns the database table name for Collection.
func (Collection) TableName() string {
	return "collections"
}

var nonIdentifier = regexp.MustCompile(`[^a-z0-9]+`)

// StorageTableName maps a collection name to its physical table identifier.
// The mapping is deterministic: lowercase, runs of non-alphanumeric
// characters collapse to a single underscore, prefixed with "vectors_".
// Distinct collection names may collide after normalization; the lifecycle
// manager rejects such creates.
func StorageTableName(name string) string {
	normalized := nonIdentifier.ReplaceAllString(strings.ToLower(name), "_")
	normalized = strings.Trim(normalized, "_")
	return "vectors_" + normalized
}

// StorageIndexName returns the similarity index identifier for a physical table.
func StorageIndexName(tableName string) string {
	return tableName + "_vector_idx"
}
