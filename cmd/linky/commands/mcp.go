// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to ingest and retrieve content via stdio
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/linky/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Linky as an MCP (Model Context Protocol) server, enabling
LLM agents to ingest URLs and retrieve indexed content via stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  linky mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "linky": {
  #       "command": "linky",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	st, err := buildStack()
	if err != nil {
		return err
	}
	defer func() { _ = st.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.gateway.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensuring index: %w", err)
	}

	server := mcpserver.NewMCPServer(
		"Linky",
		versionInfo.Version,
	)

	mcp.RegisterTools(server, st.seeder, st.assembler, st.gateway, st.cfg.MinScore)

	if !quiet {
		log.Println("Linky MCP server starting on stdio...")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, shutting down...")
		}
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
