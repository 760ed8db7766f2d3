package service

import (
	"context"
	"fmt"
	"time"

	"github.com/haruki/vecdex/internal/domain"
	"github.com/haruki/vecdex/internal/logger"
)

// CleanupSummary reports the outcome of one retention cleanup pass.
type CleanupSummary struct {
	Examined  int       `json:"examined"`
	Reclaimed int       `json:"reclaimed"`
	Cutoff    time.Time `json:"cutoff"`
}

// RetentionCutoff returns the instant before which soft-deleted collections
// are expired, given the configured retention window.
func (s *CollectionService) RetentionCutoff() time.Time {
	return s.now().UTC().AddDate(0, 0, -s.retentionDays)
}

// RunCleanup permanently removes soft-deleted collections whose retention
// window has ended. The pass is idempotent: physical tables were already
// dropped at soft-delete time, so the drop here is a no-op safety net, and a
// row that disappears mid-pass is simply skipped. Lifecycle operations call
// this opportunistically; it also backs the explicit cleanup CLI command.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *CleanupSummary: how many expired rows were found and reclaimed.
//   - error: non-nil only if the expired-row query itself fails.
func (s *CollectionService) RunCleanup(ctx context.Context) (*CleanupSummary, error) {
	cutoff := s.RetentionCutoff()
	expired, err := s.collections.ListExpired(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	summary := &CleanupSummary{Examined: len(expired), Cutoff: cutoff}
	for _, collection := range expired {
		tableName := domain.StorageTableName(collection.Name)
		if err := s.tables.DropTable(ctx, tableName); err != nil {
			logger.CtxWarn(ctx, "cleanup: drop table %s failed: %v", tableName, err)
			continue
		}
		if err := s.collections.HardDelete(ctx, collection.ID); err != nil {
			logger.CtxWarn(ctx, "cleanup: hard delete of collection %d failed: %v", collection.ID, err)
			continue
		}
		summary.Reclaimed++
		logger.CtxInfo(ctx, "cleanup: reclaimed collection %q (deleted %s)",
			collection.Name, collection.DeletedAt.Format(time.RFC3339))
	}
	return summary, nil
}
