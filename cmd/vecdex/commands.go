package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/haruki/vecdex/internal/domain"
	"github.com/haruki/vecdex/internal/repository"
	"github.com/haruki/vecdex/internal/service"
	"github.com/haruki/vecdex/internal/storage"
)

func cmdCreate(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("create")
	name := fs.String("name", "", "Collection name")
	description := fs.String("description", "", "Collection description")
	dimension := fs.Int("dimension", 0, "Vector dimension")
	fs.Parse(args)
	if *name == "" || *dimension == 0 {
		return fmt.Errorf("create requires -name and -dimension")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	collection, err := a.collections.Create(ctx, *name, *description, *dimension)
	if err != nil {
		return err
	}
	fmt.Printf("created collection %q (dimension=%d)\n", collection.Name, collection.Dimension)
	return nil
}

func cmdList(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("list")
	includeDeleted := fs.Bool("all", false, "Include soft-deleted collections still inside retention")
	fs.Parse(args)

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	collections, err := a.collections.List(ctx, *includeDeleted)
	if err != nil {
		return err
	}
	if len(collections) == 0 {
		fmt.Println("no collections")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIMENSION\tACTIVE\tCREATED\tDESCRIPTION")
	for _, c := range collections {
		fmt.Fprintf(w, "%s\t%d\t%t\t%s\t%s\n",
			c.Name, c.Dimension, c.IsActive, c.CreatedAt.Format("2006-01-02"), c.Description)
	}
	return w.Flush()
}

func cmdShow(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("show")
	name := fs.String("name", "", "Collection name")
	fs.Parse(args)
	if *name == "" {
		return fmt.Errorf("show requires -name")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	collection, err := a.collections.Get(ctx, *name)
	if err != nil {
		return err
	}
	fmt.Printf("name:        %s\n", collection.Name)
	fmt.Printf("dimension:   %d\n", collection.Dimension)
	fmt.Printf("description: %s\n", collection.Description)
	fmt.Printf("table:       %s\n", domain.StorageTableName(collection.Name))
	fmt.Printf("created:     %s\n", collection.CreatedAt.Format(time.RFC3339))
	return nil
}

func cmdRename(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("rename")
	name := fs.String("name", "", "Current collection name")
	newName := fs.String("new-name", "", "Replacement collection name")
	fs.Parse(args)
	if *name == "" || *newName == "" {
		return fmt.Errorf("rename requires -name and -new-name")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	if _, err := a.collections.Rename(ctx, *name, *newName); err != nil {
		return err
	}
	fmt.Printf("renamed %q to %q\n", *name, *newName)
	return nil
}

func cmdDescribe(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("describe")
	name := fs.String("name", "", "Collection name")
	description := fs.String("description", "", "New description")
	fs.Parse(args)
	if *name == "" {
		return fmt.Errorf("describe requires -name")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	if _, err := a.collections.UpdateDescription(ctx, *name, *description); err != nil {
		return err
	}
	fmt.Printf("updated description of %q\n", *name)
	return nil
}

func cmdDelete(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("delete")
	name := fs.String("name", "", "Collection name")
	confirm := fs.Bool("confirm", false, "Actually delete; without it only a preview is shown")
	fs.Parse(args)
	if *name == "" {
		return fmt.Errorf("delete requires -name")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	preview, err := a.collections.Delete(ctx, *name, *confirm)
	if err != nil {
		return err
	}
	if !*confirm {
		fmt.Printf("would delete %q: %d record(s) in table %s\n",
			preview.Name, preview.RecordCount, preview.TableName)
		fmt.Println("re-run with -confirm to delete")
		return nil
	}
	fmt.Printf("deleted %q (%d records)\n", preview.Name, preview.RecordCount)
	return nil
}

func cmdStats(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("stats")
	name := fs.String("name", "", "Collection name")
	fs.Parse(args)
	if *name == "" {
		return fmt.Errorf("stats requires -name")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	stats, err := a.collections.Stats(ctx, *name)
	if err != nil {
		return err
	}
	fmt.Printf("name:      %s\n", stats.Name)
	fmt.Printf("records:   %d\n", stats.RecordCount)
	fmt.Printf("dimension: %d\n", stats.Dimension)
	fmt.Printf("table:     %s\n", stats.TableName)
	fmt.Printf("created:   %s\n", stats.CreatedAt.Format(time.RFC3339))
	fmt.Printf("updated:   %s\n", stats.UpdatedAt.Format(time.RFC3339))
	return nil
}

func cmdAdd(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("add")
	collection := fs.String("collection", "", "Target collection name")
	content := fs.String("content", "", "Text to ingest; use -file to read from a file instead")
	file := fs.String("file", "", "Read content from this file")
	var metaPairs multiFlag
	fs.Var(&metaPairs, "meta", "Metadata key=value (repeatable)")
	fs.Parse(args)
	if *collection == "" {
		return fmt.Errorf("add requires -collection")
	}

	text := *content
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("read %s: %w", *file, err)
		}
		text = string(data)
	}
	if text == "" {
		return fmt.Errorf("add requires -content or -file")
	}

	metadata := domain.JSONMap{}
	for _, pair := range metaPairs {
		key, value, err := domain.ParseMetadataPair(pair)
		if err != nil {
			return err
		}
		metadata[key] = value
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	records, err := a.ingest.AddText(ctx, *collection, text, metadata)
	if err != nil {
		return err
	}
	fmt.Printf("stored %d chunk(s) in %q\n", len(records), *collection)
	return nil
}

func cmdRecords(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("records")
	collection := fs.String("collection", "", "Collection name")
	limit := fs.Int("limit", 20, "Maximum records to list")
	offset := fs.Int("offset", 0, "Records to skip")
	fs.Parse(args)
	if *collection == "" {
		return fmt.Errorf("records requires -collection")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	records, err := a.ingest.ListRecords(ctx, *collection, *limit, *offset)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tCONTENT")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), truncate(r.Content, 60))
	}
	return w.Flush()
}

func cmdDeleteRecord(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("delete-record")
	collection := fs.String("collection", "", "Collection name")
	id := fs.Uint("id", 0, "Record ID")
	fs.Parse(args)
	if *collection == "" || *id == 0 {
		return fmt.Errorf("delete-record requires -collection and -id")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	if err := a.ingest.DeleteRecord(ctx, *collection, *id); err != nil {
		return err
	}
	fmt.Printf("deleted record %d from %q\n", *id, *collection)
	return nil
}

func cmdSearch(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("search")
	collection := fs.String("collection", "", "Collection to search")
	query := fs.String("query", "", "Query text")
	limit := fs.Int("limit", 10, "Maximum results")
	precision := fs.String("precision", service.PrecisionBalanced, "Search precision: fast, balanced, precise")
	minSimilarity := fs.Float64("min-similarity", 0, "Similarity floor in [0,1]")
	fs.Parse(args)
	if *collection == "" || *query == "" {
		return fmt.Errorf("search requires -collection and -query")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	results, err := a.search.Search(ctx, *collection, *query, service.SearchOptions{
		Limit:         *limit,
		Precision:     *precision,
		MinSimilarity: *minSimilarity,
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SIMILARITY\tID\tCONTENT")
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d\t%s\n", r.Similarity, r.ID, truncate(r.Content, 70))
	}
	return w.Flush()
}

func cmdIngest(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("ingest")
	collection := fs.String("collection", "", "Target collection name")
	prefix := fs.String("prefix", "", "Object key prefix to ingest")
	fs.Parse(args)
	if *collection == "" {
		return fmt.Errorf("ingest requires -collection")
	}

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	if a.cfg.Storage.Endpoint == "" || a.cfg.Storage.Bucket == "" {
		return fmt.Errorf("bulk ingest needs storage.endpoint and storage.bucket configured")
	}

	source, err := storage.NewSource(&storage.S3Config{
		Endpoint:  a.cfg.Storage.Endpoint,
		AccessKey: a.cfg.Storage.AccessKey,
		SecretKey: a.cfg.Storage.SecretKey,
		UseSSL:    a.cfg.Storage.UseSSL,
		Bucket:    a.cfg.Storage.Bucket,
		Region:    a.cfg.Storage.Region,
	})
	if err != nil {
		return err
	}

	report, err := a.ingest.IngestFromSource(ctx, *collection, source, *prefix)
	if err != nil {
		return err
	}
	fmt.Printf("ingested %d document(s) as %d record(s)\n", report.Documents, report.Records)
	for _, key := range report.Failed {
		fmt.Printf("failed: %s\n", key)
	}
	return nil
}

func cmdCleanup(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("cleanup")
	fs.Parse(args)

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	summary, err := a.collections.RunCleanup(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("reclaimed %d of %d expired collection(s) (cutoff %s)\n",
		summary.Reclaimed, summary.Examined, summary.Cutoff.Format(time.RFC3339))
	return nil
}

func cmdStatus(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("status")
	fs.Parse(args)

	a, err := buildApp(*configPath)
	if err != nil {
		return err
	}

	if err := repository.Ping(ctx, a.db); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	hasVector, err := repository.HasVectorExtension(ctx, a.db)
	if err != nil {
		return fmt.Errorf("check pgvector: %w", err)
	}

	collections, err := a.collections.List(ctx, false)
	if err != nil {
		return err
	}

	fmt.Println("database:    ok")
	if hasVector {
		fmt.Println("pgvector:    ok")
	} else {
		fmt.Println("pgvector:    missing")
	}
	fmt.Printf("collections: %d\n", len(collections))
	return nil
}

// multiFlag collects repeated flag values.
type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint([]string(*m)) }

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
