// ABOUTME: MCP tool definitions and registration for the Linky server
// ABOUTME: Exposes URL ingestion, context retrieval, source listing, and clearing
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/seeder"
)

// Ingestor runs one ingestion job.
type Ingestor interface {
	Seed(ctx context.Context, url string, opts models.IngestOptions, namespace string, onProgress seeder.ProgressFunc) (*models.SeedResult, error)
}

// Retriever returns scored matches for a query; an empty query
// enumerates the namespace.
type Retriever interface {
	Matches(ctx context.Context, message, namespace string, minScore float64) ([]models.ScoredMatch, error)
}

// Store is the maintenance subset of the vector store gateway.
type Store interface {
	DeleteNamespace(ctx context.Context, namespace string) error
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, ingestor Ingestor, retriever Retriever, store Store, minScore float64) *Handlers {
	handlers := &Handlers{
		ingestor:  ingestor,
		retriever: retriever,
		store:     store,
		minScore:  minScore,
	}

	// 1. ingest_url - Fetch a page and index its content
	server.AddTool(mcp.Tool{
		Name:        "ingest_url",
		Description: "Fetch a web page, split it into chunks, and index it for retrieval. Re-ingesting the same content is a no-op.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "URL of the page to ingest",
				},
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User whose namespace receives the content (default: 'default')",
				},
				"splitting_method": map[string]interface{}{
					"type":        "string",
					"description": "Chunking strategy: 'recursive' or 'markdown' (default: recursive)",
				},
				"chunk_size": map[string]interface{}{
					"type":        "number",
					"description": "Maximum chunk size in characters (default: 256)",
				},
				"chunk_overlap": map[string]interface{}{
					"type":        "number",
					"description": "Overlap between adjacent chunks in characters (default: 1)",
				},
			},
			Required: []string{"url"},
		},
	}, handlers.IngestURL)

	// 2. retrieve_context - Search indexed content for a query
	server.AddTool(mcp.Tool{
		Name:        "retrieve_context",
		Description: "Search the indexed content for passages relevant to a query. Returns scored matches above the relevance threshold.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User whose namespace to search (default: 'default')",
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum similarity score for a match to qualify (default: server threshold)",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.RetrieveContext)

	// 3. list_sources - Enumerate everything indexed for a user
	server.AddTool(mcp.Tool{
		Name:        "list_sources",
		Description: "List all indexed documents for a user, with their source URLs.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User whose namespace to list (default: 'default')",
				},
			},
		},
	}, handlers.ListSources)

	// 4. clear_sources - Wipe a user's indexed content
	server.AddTool(mcp.Tool{
		Name:        "clear_sources",
		Description: "Delete all indexed content for a user. Clearing an empty namespace succeeds.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User whose namespace to clear (default: 'default')",
				},
			},
		},
	}, handlers.ClearSources)

	return handlers
}
