package mcp

// Implementation Plan:
// 1. MCPServerConfig - configuration for MCP server
// 2. Request/Response types for MCP tool interface

import (
	"path/filepath"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/mvp-joe/pyscope/internal/query"
	"github.com/mvp-joe/pyscope/internal/storage"
)

// MCPServerConfig contains configuration for the MCP server.
type MCPServerConfig struct {
	// IndexDir is the directory holding manifest.json and the artifacts
	IndexDir string

	// RootDir is the indexed source root; empty means the root recorded in the manifest
	RootDir string

	// CacheSize bounds the number of artifacts kept in memory
	CacheSize int

	// WatchIndex reloads the engine whenever a new manifest is written
	WatchIndex bool
}

// DefaultMCPServerConfig returns default server configuration.
func DefaultMCPServerConfig() *MCPServerConfig {
	return &MCPServerConfig{
		IndexDir:   filepath.Join(".pyscope", "index"),
		CacheSize:  query.DefaultCacheSize,
		WatchIndex: true,
	}
}

// FilesResponse lists indexed paths.
type FilesResponse struct {
	Files []string `json:"files"`
	Total int      `json:"total"`
}

// SummaryResponse is the class and function projection of one file.
type SummaryResponse struct {
	Path      string   `json:"path"`
	Classes   []string `json:"classes"`
	Functions []string `json:"functions"`
}

// FileResponse carries the full structure of one file.
type FileResponse struct {
	Path      string                    `json:"path"`
	Structure *extraction.FileStructure `json:"structure"`
}

// DefinitionResponse carries one class, function or method record.
// Record is nil and Found false when the item does not exist.
type DefinitionResponse struct {
	Path   string      `json:"path"`
	Kind   string      `json:"kind"`
	Name   string      `json:"name"`
	Found  bool        `json:"found"`
	Record interface{} `json:"record,omitempty"`
	Source string      `json:"source,omitempty"`
}

// DocstringResponse carries the docstring of one item; nil when absent.
type DocstringResponse struct {
	Path      string  `json:"path"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	Docstring *string `json:"docstring"`
}

// ArgumentsResponse lists the parameters of a module-level function.
type ArgumentsResponse struct {
	Path      string                      `json:"path"`
	Function  string                      `json:"function"`
	Found     bool                        `json:"found"`
	Arguments []extraction.ArgumentRecord `json:"arguments"`
}

// SearchResponse is returned by every search mode. Paths is set for name and
// text searches, Hits for keyword searches.
type SearchResponse struct {
	Mode    string              `json:"mode"`
	Pattern string              `json:"pattern"`
	Paths   []string            `json:"paths,omitempty"`
	Hits    []*query.KeywordHit `json:"hits,omitempty"`
	Total   int                 `json:"total"`
}

// SymbolsResponse lists catalog matches.
type SymbolsResponse struct {
	Symbols []storage.Symbol `json:"symbols"`
	Total   int              `json:"total"`
}

// RefreshResponse reports the stale check and, when requested, the re-parsed summary.
type RefreshResponse struct {
	Path      string   `json:"path"`
	Stale     bool     `json:"stale"`
	Refreshed bool     `json:"refreshed"`
	Classes   []string `json:"classes,omitempty"`
	Functions []string `json:"functions,omitempty"`
}
