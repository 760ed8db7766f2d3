package repository

import (
	"context"
	"fmt"

	"github.com/haruki/vecdex/internal/config"
	"github.com/haruki/vecdex/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the PostgreSQL connection, verifies the pgvector
// extension, and runs metadata migrations.
// Parameters:
//   - cfg: database configuration including DSN settings and pool limits.
// Returns:
//   - *gorm.DB: initialized database handle.
//   - error: non-nil if connection, extension setup, or migration fails.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	// PreferSimpleProtocol keeps the connection compatible with transaction
	// poolers, which reject implicit prepared statements.
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("failed to ensure pgvector extension: %w", err)
	}

	if err := db.AutoMigrate(&domain.Collection{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Active collection names must be unique; soft-deleted rows keep their
	// name so the same name can be recreated during the retention window.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_collections_active_name ON collections (name) WHERE is_active",
	).Error; err != nil {
		return nil, fmt.Errorf("failed to create active-name index: %w", err)
	}

	return db, nil
}

// Ping verifies database connectivity.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// HasVectorExtension reports whether the pgvector extension is installed.
func HasVectorExtension(ctx context.Context, db *gorm.DB) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Raw("SELECT count(*) FROM pg_extension WHERE extname = 'vector'").
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
