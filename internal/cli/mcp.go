package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for structural lookups",
	Long: `Start a Model Context Protocol (MCP) server on stdio that answers
lookups against the project's index: files, definitions, docstrings,
arguments, searches and symbols.

The server reloads whenever a new index is written, so it can run
alongside 'pyscope index --watch'.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	mcp.Version = Version
	server, err := mcp.NewMCPServer(ctx, &mcp.MCPServerConfig{
		IndexDir:   cfg.IndexDir(root),
		RootDir:    root,
		CacheSize:  cfg.Query.CacheSize,
		WatchIndex: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	return server.Serve(ctx)
}
