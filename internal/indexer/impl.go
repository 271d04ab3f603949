package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/mvp-joe/pyscope/internal/indexer/parsers"
	"github.com/mvp-joe/pyscope/internal/storage"
)

// indexer implements the Indexer interface.
type indexer struct {
	config   *Config
	filter   *PathFilter
	parser   Parser
	progress ProgressReporter
}

// New creates a new indexer instance.
func New(config *Config) (Indexer, error) {
	return NewWithProgress(config, &NoOpProgressReporter{})
}

// NewWithProgress creates a new indexer instance with progress reporting.
func NewWithProgress(config *Config, progress ProgressReporter) (Indexer, error) {
	return newIndexer(config, parsers.NewPythonParser(), progress)
}

func newIndexer(config *Config, parser Parser, progress ProgressReporter) (*indexer, error) {
	if config.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", config.Workers)
	}
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	cfg := *config
	cfg.RootDir = root
	cfg.IndexDir = cfg.ResolvedIndexDir()

	exclude := append([]string{}, cfg.Exclude...)
	if rel, ok := relativeDir(root, cfg.IndexDir); ok {
		// Never index our own output.
		exclude = append(exclude, rel+"/")
	}

	filter, err := NewPathFilter(cfg.Include, exclude)
	if err != nil {
		return nil, err
	}

	return &indexer{
		config:   &cfg,
		filter:   filter,
		parser:   parser,
		progress: progress,
	}, nil
}

// Config returns the resolved configuration.
func (idx *indexer) Config() *Config {
	return idx.config
}

// Index performs a full indexing run.
func (idx *indexer) Index(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := newReport(uuid.New().String())

	lock, err := storage.AcquireLock(idx.config.IndexDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	ai, err := storage.Open(idx.config.IndexDir)
	if err != nil {
		return nil, err
	}

	// Phase 1: selection and classification
	phaseStart := time.Now()
	idx.progress.OnDiscoveryStart()
	files, err := idx.filter.Select(idx.config.RootDir)
	if err != nil {
		return nil, err
	}
	report.Considered = len(files)

	candidates := idx.classify(files, report)
	idx.progress.OnDiscoveryComplete(len(candidates), report.SkippedBinary, report.SkippedUnsupported)
	log.Printf("[TIMING] Discovery: %v (%d files, %d to parse)\n", time.Since(phaseStart), len(files), len(candidates))

	// Phase 2: parse and write artifacts
	phaseStart = time.Now()
	manifest := storage.NewManifest(idx.config.RootDir, report.RunID, start)

	var catalog *storage.CatalogWriter
	if idx.config.BuildCatalog {
		catalog, err = storage.NewCatalogWriter(ai)
		if err != nil {
			return nil, err
		}
		defer catalog.Abort()
	}

	idx.progress.OnFileProcessingStart(len(candidates))
	if err := idx.processFiles(ctx, ai, candidates, manifest, catalog, report); err != nil {
		report.finish(start)
		return report, err
	}
	log.Printf("[TIMING] Parse files: %v (%d indexed, %d failed)\n", time.Since(phaseStart), report.Indexed, len(report.Failed))

	// Phase 3: publish. Nothing becomes visible until the manifest is renamed.
	if err := ctx.Err(); err != nil {
		report.finish(start)
		return report, err
	}

	phaseStart = time.Now()
	idx.progress.OnWritingManifest()
	if catalog != nil {
		if err := catalog.Commit(); err != nil {
			return nil, err
		}
	}
	if err := ai.WriteManifest(manifest); err != nil {
		return nil, err
	}

	pruned, err := ai.Prune(manifest)
	if err != nil {
		log.Printf("Warning: failed to prune stale artifacts: %v\n", err)
	}
	report.Pruned = pruned
	log.Printf("[TIMING] Write manifest: %v\n", time.Since(phaseStart))

	report.finish(start)
	idx.progress.OnComplete(report)
	return report, nil
}

// classify drops binary and unsupported files, counting them in the report.
func (idx *indexer) classify(files []string, report *Report) []string {
	candidates := make([]string, 0, len(files))
	for _, relPath := range files {
		absPath := filepath.Join(idx.config.RootDir, filepath.FromSlash(relPath))

		binary, err := IsBinaryFile(absPath)
		if err != nil {
			report.addFailure(relPath, err)
			continue
		}
		if binary {
			report.SkippedBinary++
			continue
		}
		if !idx.supported(relPath) {
			report.SkippedUnsupported++
			continue
		}
		candidates = append(candidates, relPath)
	}
	return candidates
}

// supported reports whether the structural parser handles relPath.
func (idx *indexer) supported(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	for _, want := range idx.config.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// processFiles parses candidates concurrently. Read, parse and artifact write
// failures are recorded per file; context and catalog errors abort the run.
func (idx *indexer) processFiles(
	ctx context.Context,
	ai *storage.ArtifactIndex,
	candidates []string,
	manifest *storage.Manifest,
	catalog *storage.CatalogWriter,
	report *Report,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.config.Workers)

	var mu sync.Mutex
	for _, relPath := range candidates {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			entry, structure, err := idx.processFile(gctx, ai, relPath)

			mu.Lock()
			defer mu.Unlock()
			idx.progress.OnFileProcessed(relPath)

			if err != nil {
				if isCancellation(err) {
					return err
				}
				log.Printf("Warning: failed to index %s: %v\n", relPath, err)
				report.addFailure(relPath, err)
				return nil
			}

			manifest.Add(entry)
			report.Indexed++
			if catalog != nil {
				if err := catalog.AddFile(entry, structure); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// processFile reads, hashes, parses and persists one file.
func (idx *indexer) processFile(ctx context.Context, ai *storage.ArtifactIndex, relPath string) (storage.ManifestEntry, *extraction.FileStructure, error) {
	absPath := filepath.Join(idx.config.RootDir, filepath.FromSlash(relPath))

	source, err := os.ReadFile(absPath)
	if err != nil {
		return storage.ManifestEntry{}, nil, fmt.Errorf("failed to read: %w", err)
	}

	structure, err := idx.parser.ParseSource(relPath, source)
	if err != nil {
		return storage.ManifestEntry{}, nil, err
	}

	// A file finishing after cancellation leaves no artifact behind.
	if err := ctx.Err(); err != nil {
		return storage.ManifestEntry{}, nil, err
	}

	artifact, err := ai.Write(relPath, structure)
	if err != nil {
		return storage.ManifestEntry{}, nil, err
	}

	return storage.ManifestEntry{
		Artifact:   artifact,
		Path:       relPath,
		SourceHash: storage.HashSource(source),
	}, structure, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// relativeDir returns dir relative to root when dir lies inside root.
func relativeDir(root, dir string) (string, bool) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, absDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
