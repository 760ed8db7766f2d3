package repository

import (
	"context"
	"fmt"

	"github.com/haruki/vecdex/internal/domain"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// VectorTableRepository manages the dynamically provisioned physical tables
// that hold one collection's vector records each. All identifiers it touches
// come from domain.StorageTableName, so they are already restricted to
// [a-z0-9_]; they are still double-quoted in every statement.
type VectorTableRepository struct {
	db *gorm.DB
}

// NewVectorTableRepository creates a new VectorTableRepository.
// Parameters:
//   - db: GORM database handle used for DDL and DML.
// Returns:
//   - *VectorTableRepository: repository instance bound to db.
func NewVectorTableRepository(db *gorm.DB) *VectorTableRepository {
	return &VectorTableRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *VectorTableRepository) WithTx(tx *gorm.DB) *VectorTableRepository {
	return &VectorTableRepository{db: tx}
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// CreateTable provisions the physical table and its HNSW cosine index for a
// collection of the given dimension.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tableName: normalized storage table identifier.
//   - dimension: vector column width.
// Returns:
//   - error: non-nil if DDL fails.
func (r *VectorTableRepository) CreateTable(ctx context.Context, tableName string, dimension int) error {
	createTable := fmt.Sprintf(`
		CREATE TABLE %s (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			vector vector(%d) NOT NULL,
			extra_metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, quoteIdent(tableName), dimension)
	if err := r.db.WithContext(ctx).Exec(createTable).Error; err != nil {
		return err
	}

	createIndex := fmt.Sprintf(
		"CREATE INDEX %s ON %s USING hnsw (vector vector_cosine_ops)",
		quoteIdent(domain.StorageIndexName(tableName)), quoteIdent(tableName))
	return r.db.WithContext(ctx).Exec(createIndex).Error
}

// RenameTable renames a physical table and its similarity index.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - oldName: current storage table identifier.
//   - newName: replacement storage table identifier.
// Returns:
//   - error: non-nil if DDL fails.
func (r *VectorTableRepository) RenameTable(ctx context.Context, oldName, newName string) error {
	renameTable := fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		quoteIdent(oldName), quoteIdent(newName))
	if err := r.db.WithContext(ctx).Exec(renameTable).Error; err != nil {
		return err
	}

	renameIndex := fmt.Sprintf("ALTER INDEX %s RENAME TO %s",
		quoteIdent(domain.StorageIndexName(oldName)),
		quoteIdent(domain.StorageIndexName(newName)))
	return r.db.WithContext(ctx).Exec(renameIndex).Error
}

// DropTable drops a physical table and, implicitly, its indexes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tableName: storage table identifier.
// Returns:
//   - error: non-nil if DDL fails.
func (r *VectorTableRepository) DropTable(ctx context.Context, tableName string) error {
	drop := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(tableName))
	return r.db.WithContext(ctx).Exec(drop).Error
}

// TableExists reports whether a physical table is present in the current schema.
func (r *VectorTableRepository) TableExists(ctx context.Context, tableName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Raw("SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?", tableName).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert adds a vector record to a physical table. The vector width is
// checked against the collection dimension here, so a mismatch never reaches
// the database.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tableName: storage table identifier.
//   - dimension: the owning collection's vector dimension.
//   - record: record to persist; ID, CreatedAt, and UpdatedAt are filled in.
// Returns:
//   - error: ErrInvalidDimension on a width mismatch, otherwise non-nil if
//     the insert fails.
func (r *VectorTableRepository) Insert(ctx context.Context, tableName string, dimension int, record *domain.VectorRecord) error {
	if len(record.Vector) != dimension {
		return fmt.Errorf("%w: vector has %d components, collection dimension is %d",
			domain.ErrInvalidDimension, len(record.Vector), dimension)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (content, vector, extra_metadata)
		VALUES (?, ?, ?)
		RETURNING id, created_at, updated_at`, quoteIdent(tableName))

	return r.db.WithContext(ctx).
		Raw(insert, record.Content, pgvector.NewVector(record.Vector), record.ExtraMetadata).
		Row().
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

// Count returns the number of records in a physical table.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tableName: storage table identifier.
// Returns:
//   - int64: row count.
//   - error: non-nil if the query fails.
func (r *VectorTableRepository) Count(ctx context.Context, tableName string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", quoteIdent(tableName))
	if err := r.db.WithContext(ctx).Raw(query).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List retrieves records from a physical table ordered by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tableName: storage table identifier.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.VectorRecord: matching records (vectors omitted).
//   - error: non-nil if the query fails.
func (r *VectorTableRepository) List(ctx context.Context, tableName string, limit, offset int) ([]domain.VectorRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, content, extra_metadata, created_at, updated_at
		FROM %s ORDER BY id LIMIT ? OFFSET ?`, quoteIdent(tableName))

	rows, err := r.db.WithContext(ctx).Raw(query, limit, offset).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.VectorRecord
	for rows.Next() {
		var rec domain.VectorRecord
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.ExtraMetadata, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteRecord removes a single record from a physical table.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tableName: storage table identifier.
//   - id: record ID.
// Returns:
//   - bool: true if a row was deleted.
//   - error: non-nil if the delete fails.
func (r *VectorTableRepository) DeleteRecord(ctx context.Context, tableName string, id uint) (bool, error) {
	del := fmt.Sprintf("DELETE FROM %s WHERE id = ?", quoteIdent(tableName))
	result := r.db.WithContext(ctx).Exec(del, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SearchNearest runs a cosine nearest-neighbor query against a physical
// table. efSearch tunes the HNSW search breadth for this query only via
// SET LOCAL, so it must run inside its own transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tableName: storage table identifier.
//   - vector: unit-norm query vector of the collection's dimension.
//   - limit: maximum number of results.
//   - efSearch: HNSW search breadth (recall/latency knob).
// Returns:
//   - []domain.ScoredRecord: results ordered by similarity descending.
//   - error: non-nil if the query fails.
func (r *VectorTableRepository) SearchNearest(ctx context.Context, tableName string, vector []float32, limit, efSearch int) ([]domain.ScoredRecord, error) {
	var results []domain.ScoredRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearch)).Error; err != nil {
			return err
		}

		query := fmt.Sprintf(`
			SELECT id, content, extra_metadata, created_at, updated_at,
			       1 - (vector <=> ?) AS similarity
			FROM %s
			ORDER BY vector <=> ?
			LIMIT ?`, quoteIdent(tableName))

		qv := pgvector.NewVector(vector)
		rows, err := tx.Raw(query, qv, qv, limit).Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec domain.ScoredRecord
			if err := rows.Scan(&rec.ID, &rec.Content, &rec.ExtraMetadata,
				&rec.CreatedAt, &rec.UpdatedAt, &rec.Similarity); err != nil {
				return err
			}
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
