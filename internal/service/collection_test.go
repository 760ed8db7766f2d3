package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/haruki/vecdex/internal/domain"
)

// fakeCollectionStore is an in-memory CollectionStore. It mirrors the
// database's behavior where that behavior matters to the lifecycle logic:
// active-name uniqueness reports the same SQLSTATE the partial unique index
// would, and lookups return copies so callers never alias stored rows.
type fakeCollectionStore struct {
	nextID uint
	rows   map[uint]*domain.Collection
}

func newFakeCollectionStore() *fakeCollectionStore {
	return &fakeCollectionStore{rows: make(map[uint]*domain.Collection)}
}

func (f *fakeCollectionStore) Create(_ context.Context, collection *domain.Collection) error {
	for _, row := range f.rows {
		if row.IsActive && row.Name == collection.Name {
			return fmt.Errorf("ERROR: duplicate key value violates unique constraint \"idx_collections_active_name\" (SQLSTATE 23505)")
		}
	}
	f.nextID++
	collection.ID = f.nextID
	collection.CreatedAt = time.Now()
	collection.UpdatedAt = collection.CreatedAt
	stored := *collection
	f.rows[collection.ID] = &stored
	return nil
}

func (f *fakeCollectionStore) GetActiveByName(_ context.Context, name string) (*domain.Collection, error) {
	for _, row := range f.rows {
		if row.IsActive && row.Name == name {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeCollectionStore) List(_ context.Context, activeOnly bool) ([]domain.Collection, error) {
	var out []domain.Collection
	for _, row := range f.rows {
		if activeOnly && !row.IsActive {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeCollectionStore) ActiveTableNameTaken(_ context.Context, tableName string, excludeID uint) (bool, error) {
	for _, row := range f.rows {
		if row.IsActive && row.ID != excludeID && domain.StorageTableName(row.Name) == tableName {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCollectionStore) Rename(_ context.Context, id uint, newName string) error {
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("collection %d not found", id)
	}
	row.Name = newName
	row.UpdatedAt = time.Now()
	return nil
}

func (f *fakeCollectionStore) UpdateDescription(_ context.Context, id uint, description string) error {
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("collection %d not found", id)
	}
	row.Description = description
	return nil
}

func (f *fakeCollectionStore) SoftDelete(_ context.Context, id uint, deletedAt time.Time) error {
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("collection %d not found", id)
	}
	row.IsActive = false
	row.DeletedAt = &deletedAt
	return nil
}

func (f *fakeCollectionStore) ListExpired(_ context.Context, cutoff time.Time) ([]domain.Collection, error) {
	var out []domain.Collection
	for _, row := range f.rows {
		if !row.IsActive && row.DeletedAt != nil && row.DeletedAt.Before(cutoff) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeCollectionStore) HardDelete(_ context.Context, id uint) error {
	delete(f.rows, id)
	return nil
}

// fakeVectorTableStore is an in-memory VectorTableStore. Creating a table
// that already exists fails with the SQLSTATE Postgres uses for a duplicate
// relation.
type fakeVectorTableStore struct {
	tables map[string]*fakeTable
}

type fakeTable struct {
	dimension int
	records   []domain.VectorRecord
}

func newFakeVectorTableStore() *fakeVectorTableStore {
	return &fakeVectorTableStore{tables: make(map[string]*fakeTable)}
}

func (f *fakeVectorTableStore) CreateTable(_ context.Context, tableName string, dimension int) error {
	if _, ok := f.tables[tableName]; ok {
		return fmt.Errorf("ERROR: relation %q already exists (SQLSTATE 42P07)", tableName)
	}
	f.tables[tableName] = &fakeTable{dimension: dimension}
	return nil
}

func (f *fakeVectorTableStore) RenameTable(_ context.Context, oldName, newName string) error {
	table, ok := f.tables[oldName]
	if !ok {
		return fmt.Errorf("ERROR: relation %q does not exist (SQLSTATE 42P01)", oldName)
	}
	if _, ok := f.tables[newName]; ok {
		return fmt.Errorf("ERROR: relation %q already exists (SQLSTATE 42P07)", newName)
	}
	delete(f.tables, oldName)
	f.tables[newName] = table
	return nil
}

func (f *fakeVectorTableStore) DropTable(_ context.Context, tableName string) error {
	delete(f.tables, tableName)
	return nil
}

func (f *fakeVectorTableStore) TableExists(_ context.Context, tableName string) (bool, error) {
	_, ok := f.tables[tableName]
	return ok, nil
}

func (f *fakeVectorTableStore) Insert(_ context.Context, tableName string, dimension int, record *domain.VectorRecord) error {
	if len(record.Vector) != dimension {
		return fmt.Errorf("%w: vector has %d components, collection dimension is %d",
			domain.ErrInvalidDimension, len(record.Vector), dimension)
	}
	table, ok := f.tables[tableName]
	if !ok {
		return fmt.Errorf("ERROR: relation %q does not exist (SQLSTATE 42P01)", tableName)
	}
	record.ID = uint(len(table.records) + 1)
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	table.records = append(table.records, *record)
	return nil
}

func (f *fakeVectorTableStore) Count(_ context.Context, tableName string) (int64, error) {
	table, ok := f.tables[tableName]
	if !ok {
		return 0, fmt.Errorf("ERROR: relation %q does not exist (SQLSTATE 42P01)", tableName)
	}
	return int64(len(table.records)), nil
}

func (f *fakeVectorTableStore) List(_ context.Context, tableName string, limit, offset int) ([]domain.VectorRecord, error) {
	table, ok := f.tables[tableName]
	if !ok {
		return nil, fmt.Errorf("ERROR: relation %q does not exist (SQLSTATE 42P01)", tableName)
	}
	if offset >= len(table.records) {
		return nil, nil
	}
	end := min(offset+limit, len(table.records))
	return append([]domain.VectorRecord(nil), table.records[offset:end]...), nil
}

func (f *fakeVectorTableStore) DeleteRecord(_ context.Context, tableName string, id uint) (bool, error) {
	table, ok := f.tables[tableName]
	if !ok {
		return false, fmt.Errorf("ERROR: relation %q does not exist (SQLSTATE 42P01)", tableName)
	}
	for i, rec := range table.records {
		if rec.ID == id {
			table.records = append(table.records[:i], table.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVectorTableStore) SearchNearest(_ context.Context, tableName string, _ []float32, _, _ int) ([]domain.ScoredRecord, error) {
	if _, ok := f.tables[tableName]; !ok {
		return nil, fmt.Errorf("ERROR: relation %q does not exist (SQLSTATE 42P01)", tableName)
	}
	return nil, nil
}

// newLifecycleService wires a CollectionService to in-memory stores. The
// injected runTx runs the callback against the same stores; fake operations
// are not transactional, which is fine for what these tests assert.
func newLifecycleService(retentionDays int, clock *time.Time) (*CollectionService, *fakeCollectionStore, *fakeVectorTableStore) {
	cs := newFakeCollectionStore()
	ts := newFakeVectorTableStore()
	svc := &CollectionService{
		collections:   cs,
		tables:        ts,
		runTx: func(_ context.Context, fn func(CollectionStore, VectorTableStore) error) error {
			return fn(cs, ts)
		},
		retentionDays: retentionDays,
		now:           func() time.Time { return *clock },
	}
	return svc, cs, ts
}

func TestCreateProvisionsTable(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, _, tables := newLifecycleService(30, &clock)
	ctx := context.Background()

	collection, err := svc.Create(ctx, "docs", "test corpus", 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if collection.ID == 0 {
		t.Error("created collection has no ID")
	}

	table, ok := tables.tables["vectors_docs"]
	if !ok {
		t.Fatal("physical table vectors_docs was not provisioned")
	}
	if table.dimension != 3 {
		t.Errorf("table dimension = %d, want 3", table.dimension)
	}
}

func TestCreateNameConflicts(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newLifecycleService(30, &clock)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "my docs", "", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("same name", func(t *testing.T) {
		_, err := svc.Create(ctx, "my docs", "", 3)
		if !errors.Is(err, domain.ErrNameConflict) {
			t.Errorf("got %v, want ErrNameConflict", err)
		}
	})

	t.Run("name normalizing to same table", func(t *testing.T) {
		// "my-docs" and "my docs" both map to vectors_my_docs.
		_, err := svc.Create(ctx, "my-docs", "", 3)
		if !errors.Is(err, domain.ErrNameConflict) {
			t.Errorf("got %v, want ErrNameConflict", err)
		}
	})
}

func TestCreateLosingTableRaceIsConflict(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, _, tables := newLifecycleService(30, &clock)
	ctx := context.Background()

	// A concurrent create of a name normalizing to the same table has already
	// provisioned vectors_a_b but its metadata row is not visible yet, so the
	// pre-checks pass and CREATE TABLE is where this create loses the race.
	if err := tables.CreateTable(ctx, "vectors_a_b", 3); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	_, err := svc.Create(ctx, "a-b", "", 3)
	if !errors.Is(err, domain.ErrNameConflict) {
		t.Errorf("losing the table race: got %v, want ErrNameConflict", err)
	}
}

func TestDeletePreviewLeavesCollectionIntact(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, _, tables := newLifecycleService(30, &clock)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "docs", "", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}
	record := domain.VectorRecord{Content: "hello", Vector: []float32{1, 0, 0}}
	if err := tables.Insert(ctx, "vectors_docs", 3, &record); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	preview, err := svc.Delete(ctx, "docs", false)
	if err != nil {
		t.Fatalf("Delete preview: %v", err)
	}
	if preview.Confirmed {
		t.Error("preview reported Confirmed = true")
	}
	if preview.RecordCount != 1 {
		t.Errorf("preview RecordCount = %d, want 1", preview.RecordCount)
	}

	if _, err := svc.Get(ctx, "docs"); err != nil {
		t.Errorf("collection gone after unconfirmed delete: %v", err)
	}
	if _, ok := tables.tables["vectors_docs"]; !ok {
		t.Error("physical table gone after unconfirmed delete")
	}
}

func TestStatsAfterConfirmedDelete(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, _, tables := newLifecycleService(30, &clock)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "docs", "", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}
	preview, err := svc.Delete(ctx, "docs", true)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !preview.Confirmed {
		t.Error("confirmed delete reported Confirmed = false")
	}

	if _, ok := tables.tables["vectors_docs"]; ok {
		t.Error("physical table still present after confirmed delete")
	}
	if _, err := svc.Stats(ctx, "docs"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Stats after delete: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, "docs"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
}

func TestRenameMovesTable(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, _, tables := newLifecycleService(30, &clock)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "old docs", "", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}
	record := domain.VectorRecord{Content: "kept", Vector: []float32{0, 1, 0}}
	if err := tables.Insert(ctx, "vectors_old_docs", 3, &record); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	renamed, err := svc.Rename(ctx, "old docs", "new docs")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Name != "new docs" {
		t.Errorf("renamed.Name = %q", renamed.Name)
	}

	if _, ok := tables.tables["vectors_old_docs"]; ok {
		t.Error("old physical table still present after rename")
	}
	moved, ok := tables.tables["vectors_new_docs"]
	if !ok {
		t.Fatal("new physical table missing after rename")
	}
	if len(moved.records) != 1 || moved.records[0].Content != "kept" {
		t.Error("records did not move with the table")
	}

	if _, err := svc.Get(ctx, "old docs"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get old name: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, "new docs"); err != nil {
		t.Errorf("Get new name: %v", err)
	}
}

func TestRenameOntoExistingNameIsConflict(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newLifecycleService(30, &clock)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "alpha", "", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "beta", "", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Rename(ctx, "alpha", "beta"); !errors.Is(err, domain.ErrNameConflict) {
		t.Errorf("got %v, want ErrNameConflict", err)
	}
}

func TestCleanupReclaimsOnceAndFreesName(t *testing.T) {
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newLifecycleService(30, &clock)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "docs", "", 3); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Delete(ctx, "docs", true); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Still inside the retention window: nothing to reclaim.
	summary, err := svc.RunCleanup(ctx)
	if err != nil {
		t.Fatalf("RunCleanup: %v", err)
	}
	if summary.Examined != 0 || summary.Reclaimed != 0 {
		t.Errorf("cleanup inside retention: examined=%d reclaimed=%d, want 0/0",
			summary.Examined, summary.Reclaimed)
	}

	clock = clock.AddDate(0, 0, 31)

	summary, err = svc.RunCleanup(ctx)
	if err != nil {
		t.Fatalf("RunCleanup: %v", err)
	}
	if summary.Examined != 1 || summary.Reclaimed != 1 {
		t.Errorf("cleanup after retention: examined=%d reclaimed=%d, want 1/1",
			summary.Examined, summary.Reclaimed)
	}

	// A second pass finds nothing; the first already reclaimed the row.
	summary, err = svc.RunCleanup(ctx)
	if err != nil {
		t.Fatalf("RunCleanup: %v", err)
	}
	if summary.Examined != 0 || summary.Reclaimed != 0 {
		t.Errorf("second cleanup pass: examined=%d reclaimed=%d, want 0/0",
			summary.Examined, summary.Reclaimed)
	}

	// The reclaimed name is free for a fresh collection.
	if _, err := svc.Create(ctx, "docs", "", 5); err != nil {
		t.Errorf("recreating a reclaimed name: %v", err)
	}
}
