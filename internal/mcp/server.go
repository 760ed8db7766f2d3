package mcp

import (
	"context"
	"fmt"

	"github.com/haruki/vecdex/internal/logger"
	"github.com/haruki/vecdex/internal/repository"
	"github.com/haruki/vecdex/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gorm.io/gorm"
)

// Server exposes the collection lifecycle and search operations as MCP tools
// over the stdio transport, so agent runtimes can drive vecdex directly.
type Server struct {
	mcp         *mcp.Server
	db          *gorm.DB
	collections *service.CollectionService
	ingest      *service.IngestService
	search      *service.SearchService
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// NewServer creates an MCP server with all tools registered.
// Parameters:
//   - cfg: server name and version advertised during the handshake.
//   - db: database handle for the status tool's health probes.
//   - collections: lifecycle service.
//   - ingest: ingestion service.
//   - search: search service.
// Returns:
//   - *Server: server ready to Run.
//   - error: non-nil if a required dependency is missing.
func NewServer(cfg Config, db *gorm.DB, collections *service.CollectionService, ingest *service.IngestService, search *service.SearchService) (*Server, error) {
	if collections == nil || ingest == nil || search == nil {
		return nil, fmt.Errorf("collection, ingest, and search services are required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:         mcpServer,
		db:          db,
		collections: collections,
		ingest:      ingest,
		search:      search,
	}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on the stdio transport and blocks until the
// context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.CtxInfo(ctx, "starting MCP server on stdio transport")
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server run failed: %w", err)
	}
	return nil
}

// statusOutput is the status tool's report.
type statusOutput struct {
	Database    string `json:"database" jsonschema:"Database reachability: ok or unreachable"`
	PgVector    string `json:"pgvector" jsonschema:"pgvector extension availability: ok or missing"`
	Collections int    `json:"collections" jsonschema:"Number of active collections"`
}

func (s *Server) probeStatus(ctx context.Context) statusOutput {
	out := statusOutput{Database: "ok", PgVector: "ok"}

	if err := repository.Ping(ctx, s.db); err != nil {
		out.Database = "unreachable"
		out.PgVector = "unknown"
		return out
	}
	if has, err := repository.HasVectorExtension(ctx, s.db); err != nil || !has {
		out.PgVector = "missing"
	}
	if collections, err := s.collections.List(ctx, false); err == nil {
		out.Collections = len(collections)
	}
	return out
}
