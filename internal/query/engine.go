package query

// Implementation Plan:
// 1. Engine loads the manifest of one index directory
// 2. Artifacts are read on demand through an LRU cache
// 3. Point lookups (summary, class, function, method, docstring, arguments)
// 4. Pattern searches over paths, source text and a bleve keyword index
// 5. Symbol lookups across files through the SQLite catalog
// 6. Stale detection and explicit refresh against the source tree

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/mvp-joe/pyscope/internal/indexer/parsers"
	"github.com/mvp-joe/pyscope/internal/storage"
)

var (
	// ErrNotIndexed indicates a query for a path absent from the manifest.
	ErrNotIndexed = errors.New("path is not indexed")

	// ErrUnknownKind indicates a docstring lookup with an unsupported item kind.
	ErrUnknownKind = errors.New("unknown item kind")

	// ErrInvalidName indicates a method name not written as Class.method.
	ErrInvalidName = errors.New("invalid item name")
)

// DefaultCacheSize is the number of artifacts kept in memory when Options leaves it unset.
const DefaultCacheSize = 256

// Parser re-parses a source file on Refresh.
type Parser interface {
	ParseSource(path string, source []byte) (*extraction.FileStructure, error)
}

// Options configures an Engine. The zero value is usable.
type Options struct {
	CacheSize int
	Root      string // source root for stale checks; defaults to the manifest root
	Parser    Parser // defaults to the Python parser
}

// Summary is the lightweight projection of one file.
type Summary struct {
	Classes   []string `json:"classes"`
	Functions []string `json:"functions"`
}

// Engine answers structural queries from an index directory.
// Records returned by the engine are shared with its cache and must not be modified.
type Engine struct {
	dir    string
	root   string
	parser Parser

	mu       sync.RWMutex
	manifest *storage.Manifest
	overlay  map[string]*extraction.FileStructure // refreshed structures
	keyword  *keywordIndex
	catalog  *storage.Catalog

	cache *lru.Cache[string, *extraction.FileStructure]
}

// NewEngine opens the index in dir. A directory without a manifest yields an
// empty engine: every path query then returns ErrNotIndexed.
func NewEngine(dir string, opts *Options) (*Engine, error) {
	if opts == nil {
		opts = &Options{}
	}

	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *extraction.FileStructure](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact cache: %w", err)
	}

	e := &Engine{
		dir:    dir,
		root:   opts.Root,
		parser: opts.Parser,
		cache:  cache,
	}
	if e.parser == nil {
		e.parser = parsers.NewPythonParser()
	}

	if err := e.Reload(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload re-reads the manifest and drops every cached or refreshed structure.
// The catalog is reopened on the next symbol lookup.
func (e *Engine) Reload() error {
	manifest, err := storage.ReadManifest(e.dir)
	if err != nil {
		if !errors.Is(err, storage.ErrNoManifest) {
			return err
		}
		log.Printf("Warning: no index found in %s", e.dir)
		manifest = storage.NewManifest("", "", time.Time{})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.manifest = manifest
	e.overlay = make(map[string]*extraction.FileStructure)
	e.resetKeywordLocked()
	e.cache.Purge()
	if e.catalog != nil {
		if err := e.catalog.Close(); err != nil {
			log.Printf("Warning: failed to close symbol catalog: %v", err)
		}
		e.catalog = nil
	}
	return nil
}

// Close releases the keyword index and catalog handles.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetKeywordLocked()
	if e.catalog != nil {
		err := e.catalog.Close()
		e.catalog = nil
		return err
	}
	return nil
}

// Dir returns the index directory.
func (e *Engine) Dir() string {
	return e.dir
}

// SourceRoot returns the directory indexed paths are relative to.
func (e *Engine) SourceRoot() string {
	if e.root != "" {
		return e.root
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.manifest.Root
}

// ListFiles returns every indexed path, sorted.
func (e *Engine) ListFiles() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.manifest.Paths()
}

// FileSummary returns class and function names of one file.
func (e *Engine) FileSummary(path string) (*Summary, error) {
	fs, err := e.load(path)
	if err != nil || fs == nil {
		return nil, err
	}

	summary := &Summary{
		Classes:   make([]string, 0, len(fs.Classes)),
		Functions: make([]string, 0, len(fs.Functions)),
	}
	for _, c := range fs.Classes {
		summary.Classes = append(summary.Classes, c.Name)
	}
	for _, fn := range fs.Functions {
		summary.Functions = append(summary.Functions, fn.Name)
	}
	return summary, nil
}

// FileAll returns the full structure of one file.
func (e *Engine) FileAll(path string) (*extraction.FileStructure, error) {
	return e.load(path)
}

// ClassDefinition returns the first class named class, or nil.
func (e *Engine) ClassDefinition(path, class string) (*extraction.ClassRecord, error) {
	fs, err := e.load(path)
	if err != nil || fs == nil {
		return nil, err
	}
	return fs.Class(class), nil
}

// FunctionDefinition returns the first module-level function named function, or nil.
func (e *Engine) FunctionDefinition(path, function string) (*extraction.FunctionRecord, error) {
	fs, err := e.load(path)
	if err != nil || fs == nil {
		return nil, err
	}
	return fs.Function(function), nil
}

// MethodDefinition returns method of class, or nil when either is absent.
func (e *Engine) MethodDefinition(path, class, method string) (*extraction.FunctionRecord, error) {
	c, err := e.ClassDefinition(path, class)
	if err != nil || c == nil {
		return nil, err
	}
	return c.Method(method), nil
}

// FunctionArguments returns every parameter of a module-level function, or nil.
func (e *Engine) FunctionArguments(path, function string) ([]extraction.ArgumentRecord, error) {
	fn, err := e.FunctionDefinition(path, function)
	if err != nil || fn == nil {
		return nil, err
	}
	return fn.AllArguments(), nil
}

// load returns the structure for path. Unknown paths yield ErrNotIndexed;
// missing or corrupt artifacts are logged and yield nil.
func (e *Engine) load(path string) (*extraction.FileStructure, error) {
	path = filepath.ToSlash(path)

	e.mu.RLock()
	entry, ok := e.manifest.Lookup(path)
	refreshed := e.overlay[path]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, path)
	}
	if refreshed != nil {
		return refreshed, nil
	}
	if fs, ok := e.cache.Get(entry.Artifact); ok {
		return fs, nil
	}

	fs, err := storage.ReadArtifact(e.dir, entry.Artifact)
	if err != nil {
		log.Printf("Warning: %v", err)
		return nil, nil
	}
	e.cache.Add(entry.Artifact, fs)
	return fs, nil
}
