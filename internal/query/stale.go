package query

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/mvp-joe/pyscope/internal/storage"
)

// IsStale reports whether the source of an indexed path changed since the
// index was built. A deleted source file is stale.
func (e *Engine) IsStale(path string) (bool, error) {
	path = filepath.ToSlash(path)

	e.mu.RLock()
	entry, ok := e.manifest.Lookup(path)
	e.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotIndexed, path)
	}

	hash, err := storage.HashFile(e.sourcePath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return hash != entry.SourceHash, nil
}

// Refresh re-parses the source of an indexed path and serves the new
// structure from memory until the next Reload. The index on disk is unchanged.
func (e *Engine) Refresh(path string) (*extraction.FileStructure, error) {
	path = filepath.ToSlash(path)

	e.mu.RLock()
	_, ok := e.manifest.Lookup(path)
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, path)
	}

	source, err := os.ReadFile(e.sourcePath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	structure, err := e.parser.ParseSource(path, source)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.overlay[path] = structure
	e.resetKeywordLocked()
	return structure, nil
}

func (e *Engine) sourcePath(path string) string {
	return filepath.Join(e.SourceRoot(), filepath.FromSlash(path))
}
