package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/haruki/vecdex/internal/domain"
	"github.com/haruki/vecdex/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type createCollectionInput struct {
	Name        string `json:"name" jsonschema:"required,Collection name (2-44 chars: letters, digits, underscores, hyphens, spaces)"`
	Description string `json:"description,omitempty" jsonschema:"Optional free-form description"`
	Dimension   int    `json:"dimension" jsonschema:"required,Vector dimension for the collection (1-4096)"`
}

type collectionOutput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Dimension   int    `json:"dimension"`
	CreatedAt   string `json:"created_at"`
}

type listCollectionsInput struct {
	IncludeDeleted bool `json:"include_deleted,omitempty" jsonschema:"Include soft-deleted collections still inside retention"`
}

type listCollectionsOutput struct {
	Collections []collectionOutput `json:"collections"`
	Total       int                `json:"total"`
}

type renameCollectionInput struct {
	Name    string `json:"name" jsonschema:"required,Current collection name"`
	NewName string `json:"new_name" jsonschema:"required,Replacement collection name"`
}

type deleteCollectionInput struct {
	Name    string `json:"name" jsonschema:"required,Collection name"`
	Confirm bool   `json:"confirm,omitempty" jsonschema:"Must be true to actually delete; false returns a preview"`
}

type deleteCollectionOutput struct {
	Name        string `json:"name"`
	RecordCount int64  `json:"record_count"`
	Deleted     bool   `json:"deleted"`
	Message     string `json:"message,omitempty"`
}

type statsInput struct {
	Name string `json:"name" jsonschema:"required,Collection name"`
}

type addTextInput struct {
	Collection string         `json:"collection" jsonschema:"required,Target collection name"`
	Content    string         `json:"content" jsonschema:"required,Text to ingest; long text is chunked automatically"`
	Metadata   domain.JSONMap `json:"metadata,omitempty" jsonschema:"Optional metadata stored on every record"`
}

type addTextOutput struct {
	Chunks    int  `json:"chunks" jsonschema:"Number of records created"`
	FirstID   uint `json:"first_id"`
	Dimension int  `json:"dimension"`
}

type searchInput struct {
	Collection    string  `json:"collection" jsonschema:"required,Collection to search"`
	Query         string  `json:"query" jsonschema:"required,Natural-language query (max 1000 chars)"`
	Limit         int     `json:"limit,omitempty" jsonschema:"Maximum results (default 10, max 100)"`
	Precision     string  `json:"precision,omitempty" jsonschema:"Search precision: fast, balanced, or precise (default balanced)"`
	MinSimilarity float64 `json:"min_similarity,omitempty" jsonschema:"Similarity floor in [0,1]; results below it are dropped"`
}

type searchOutput struct {
	Results []service.SearchResult `json:"results"`
	Total   int                    `json:"total"`
}

func toCollectionOutput(c domain.Collection) collectionOutput {
	return collectionOutput{
		Name:        c.Name,
		Description: c.Description,
		Dimension:   c.Dimension,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "status",
		Description: "Report database reachability, pgvector availability, and the number of active collections.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, statusOutput, error) {
		out := s.probeStatus(ctx)
		return textResult("database=%s pgvector=%s collections=%d", out.Database, out.PgVector, out.Collections), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_collection",
		Description: "Create a vector collection with a fixed dimension. Provisions the backing table and similarity index.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args createCollectionInput) (*mcp.CallToolResult, collectionOutput, error) {
		collection, err := s.collections.Create(ctx, args.Name, args.Description, args.Dimension)
		if err != nil {
			return nil, collectionOutput{}, err
		}
		out := toCollectionOutput(*collection)
		return textResult("created collection %q with dimension %d", out.Name, out.Dimension), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_collections",
		Description: "List collections. Expired soft-deleted collections are reclaimed first.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listCollectionsInput) (*mcp.CallToolResult, listCollectionsOutput, error) {
		collections, err := s.collections.List(ctx, args.IncludeDeleted)
		if err != nil {
			return nil, listCollectionsOutput{}, err
		}
		out := listCollectionsOutput{Collections: make([]collectionOutput, 0, len(collections))}
		for _, c := range collections {
			out.Collections = append(out.Collections, toCollectionOutput(c))
		}
		out.Total = len(out.Collections)
		return textResult("%d collection(s)", out.Total), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "rename_collection",
		Description: "Rename a collection. The backing table moves with it; stored vectors are untouched.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args renameCollectionInput) (*mcp.CallToolResult, collectionOutput, error) {
		collection, err := s.collections.Rename(ctx, args.Name, args.NewName)
		if err != nil {
			return nil, collectionOutput{}, err
		}
		out := toCollectionOutput(*collection)
		return textResult("renamed collection to %q", out.Name), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_collection",
		Description: "Delete a collection. Without confirm=true this only previews what would be removed. Deletion drops the vectors immediately; the name stays reserved until retention expires.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args deleteCollectionInput) (*mcp.CallToolResult, deleteCollectionOutput, error) {
		preview, err := s.collections.Delete(ctx, args.Name, args.Confirm)
		if err != nil {
			return nil, deleteCollectionOutput{}, err
		}
		out := deleteCollectionOutput{
			Name:        preview.Name,
			RecordCount: preview.RecordCount,
			Deleted:     args.Confirm,
		}
		if !args.Confirm {
			out.Message = "pass confirm=true to delete this collection"
			return textResult("would delete %q (%d records); not confirmed", out.Name, out.RecordCount), out, nil
		}
		return textResult("deleted collection %q (%d records)", out.Name, out.RecordCount), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "collection_stats",
		Description: "Show record count, dimension, and timestamps for a collection.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args statsInput) (*mcp.CallToolResult, service.CollectionStats, error) {
		stats, err := s.collections.Stats(ctx, args.Name)
		if err != nil {
			return nil, service.CollectionStats{}, err
		}
		return textResult("%q: %d record(s), dimension %d", stats.Name, stats.RecordCount, stats.Dimension), *stats, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_text",
		Description: "Embed text and store it in a collection. Text over the chunk budget is split into overlapping chunks, each stored as its own record.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args addTextInput) (*mcp.CallToolResult, addTextOutput, error) {
		records, err := s.ingest.AddText(ctx, args.Collection, args.Content, args.Metadata)
		if err != nil {
			return nil, addTextOutput{}, err
		}
		out := addTextOutput{Chunks: len(records)}
		if len(records) > 0 {
			out.FirstID = records[0].ID
			out.Dimension = len(records[0].Vector)
		}
		return textResult("stored %d chunk(s) in %q", out.Chunks, args.Collection), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Similarity search in a collection. Returns matches ordered by cosine similarity, best first.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchInput) (*mcp.CallToolResult, searchOutput, error) {
		results, err := s.search.Search(ctx, args.Collection, args.Query, service.SearchOptions{
			Limit:         args.Limit,
			Precision:     args.Precision,
			MinSimilarity: args.MinSimilarity,
		})
		if err != nil {
			return nil, searchOutput{}, err
		}
		return textResult("%d result(s) for %q", len(results), args.Query), searchOutput{Results: results, Total: len(results)}, nil
	})
}
