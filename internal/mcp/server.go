package mcp

// Implementation Plan:
// 1. MCPServer struct with query engine and optional manifest watcher
// 2. NewMCPServer - opens the engine, registers tools, creates the watcher
// 3. Serve - starts MCP server on stdio with graceful shutdown
// 4. Graceful shutdown on SIGTERM/SIGINT

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pyscope/internal/query"
)

// Version is reported to MCP clients.
var Version = "dev"

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	config  *MCPServerConfig
	engine  *query.Engine
	watcher *ManifestWatcher
	mcp     *server.MCPServer
}

// NewMCPServer creates a new MCP server over the index in config.IndexDir.
func NewMCPServer(ctx context.Context, config *MCPServerConfig) (*MCPServer, error) {
	if config == nil {
		config = DefaultMCPServerConfig()
	}

	engine, err := query.NewEngine(config.IndexDir, &query.Options{
		CacheSize: config.CacheSize,
		Root:      config.RootDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	mcpServer := NewToolServer(engine)

	s := &MCPServer{
		config: config,
		engine: engine,
		mcp:    mcpServer,
	}

	if config.WatchIndex {
		if err := os.MkdirAll(config.IndexDir, 0755); err != nil {
			engine.Close()
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		watcher, err := NewManifestWatcher(engine, config.IndexDir)
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("failed to create index watcher: %w", err)
		}
		s.watcher = watcher
	}

	return s, nil
}

// NewToolServer creates an MCP server with every pyscope tool registered.
func NewToolServer(engine *query.Engine) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"pyscope-mcp",
		Version,
		server.WithToolCapabilities(true),
	)

	AddPyscopeFilesTool(mcpServer, engine)
	AddPyscopeDefinitionTool(mcpServer, engine)
	AddPyscopeDocstringTool(mcpServer, engine)
	AddPyscopeArgumentsTool(mcpServer, engine)
	AddPyscopeSearchTool(mcpServer, engine)
	AddPyscopeSymbolsTool(mcpServer, engine)
	AddPyscopeRefreshTool(mcpServer, engine)

	return mcpServer
}

// Serve starts the MCP server and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Start(ctx)
		defer s.watcher.Stop()
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Start MCP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio (%d files indexed)...", len(s.engine.ListFiles()))
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases all resources.
func (s *MCPServer) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.engine != nil {
		return s.engine.Close()
	}
	return nil
}
