package indexer

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
)

// Implementation Plan:
// 1. PathFilter - include/exclude rules with directory pruning (discovery.go)
// 2. IsBinaryFile - NUL / UTF-8 sniffing of the first 1024 bytes (binary.go)
// 3. Parser - structural parser contract, implemented by parsers.PythonParser
// 4. Indexer - one full run: select → parse (errgroup) → artifacts → manifest (impl.go)
// 5. Report - per-run counts and per-file failures (report.go)
// 6. IndexerWatcher - debounced full re-runs on source changes (watcher.go)

// Indexer runs full indexing passes over a source tree.
type Indexer interface {
	// Index selects, parses and persists every file under the root.
	// Per-file failures are recorded in the report and never abort the run.
	// A cancelled context aborts the run without writing a manifest.
	Index(ctx context.Context) (*Report, error)

	// Config returns the resolved configuration.
	Config() *Config
}

// Parser turns source bytes into a FileStructure recorded under path.
type Parser interface {
	ParseSource(path string, source []byte) (*extraction.FileStructure, error)
}

// Config contains configuration for the indexer.
type Config struct {
	// Root directory of the source tree to index
	RootDir string

	// Selection rules, see PathFilter
	Include []string
	Exclude []string

	// Extensions the structural parser handles; other text files are skipped
	Extensions []string

	// Output directory for artifacts and manifest; relative paths are
	// resolved against RootDir
	IndexDir string

	// Number of files parsed concurrently
	Workers int

	// Build the SQLite symbol catalog next to the artifacts
	BuildCatalog bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig(rootDir string) *Config {
	return &Config{
		RootDir: rootDir,
		Include: []string{"*.py"},
		Exclude: []string{
			".git/",
			"node_modules/",
			"__pycache__/",
			".venv/",
			"venv/",
			"build/",
			"dist/",
			".pyscope/",
		},
		Extensions:   []string{".py", ".pyi"},
		IndexDir:     filepath.Join(".pyscope", "index"),
		Workers:      runtime.NumCPU(),
		BuildCatalog: true,
	}
}

// ResolvedIndexDir returns the index directory as an absolute-or-root-joined path.
func (c *Config) ResolvedIndexDir() string {
	if filepath.IsAbs(c.IndexDir) {
		return c.IndexDir
	}
	return filepath.Join(c.RootDir, c.IndexDir)
}
