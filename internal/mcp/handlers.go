// ABOUTME: MCP tool handler implementations for the Linky server
// ABOUTME: Translates tool calls into ingestion, retrieval, and maintenance operations
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/util"
)

// defaultUserID is the namespace owner when a tool call omits user_id.
const defaultUserID = "default"

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	ingestor  Ingestor
	retriever Retriever
	store     Store
	minScore  float64
}

// IngestURL handles the ingest_url tool
func (h *Handlers) IngestURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url argument is required and must be a string"), nil
	}

	opts := models.IngestOptions{
		SplitStrategy: models.SplitStrategy(request.GetString("splitting_method", "")),
		ChunkSize:     request.GetInt("chunk_size", 0),
		ChunkOverlap:  request.GetInt("chunk_overlap", 0),
	}
	namespace := util.UserNamespace(request.GetString("user_id", defaultUserID))

	// Progress frames have no consumer over MCP; the final result carries
	// everything the caller needs.
	result, err := h.ingestor.Seed(ctx, url, opts, namespace, func(models.ProgressEvent) error { return nil })
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"url":       url,
		"documents": len(result.Documents),
		"upserted":  result.Upserted,
		"skipped":   result.Skipped,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// RetrieveContext handles the retrieve_context tool
func (h *Handlers) RetrieveContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}

	minScore := request.GetFloat("min_score", h.minScore)
	namespace := util.UserNamespace(request.GetString("user_id", defaultUserID))

	matches, err := h.retriever.Matches(ctx, query, namespace, minScore)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	results := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		results = append(results, map[string]interface{}{
			"id":      m.ID,
			"score":   m.Score,
			"content": m.Metadata.Chunk,
			"url":     m.Metadata.URL,
		})
	}

	response := map[string]interface{}{
		"query":   query,
		"matches": results,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// ListSources handles the list_sources tool
func (h *Handlers) ListSources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	namespace := util.UserNamespace(request.GetString("user_id", defaultUserID))

	matches, err := h.retriever.Matches(ctx, "", namespace, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing sources failed: %v", err)), nil
	}

	sources := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, map[string]interface{}{
			"id":      m.ID,
			"url":     m.Metadata.URL,
			"content": m.Metadata.Chunk,
		})
	}

	response := map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// ClearSources handles the clear_sources tool
func (h *Handlers) ClearSources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", defaultUserID)
	namespace := util.UserNamespace(userID)

	if err := h.store.DeleteNamespace(ctx, namespace); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clearing sources failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"success":   true,
		"namespace": namespace,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}
