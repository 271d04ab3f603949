package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/mvp-joe/pyscope/internal/indexer/parsers"
	"github.com/mvp-joe/pyscope/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Indexer:
// - Full run writes one artifact per parsed file, a sorted manifest and a catalog
// - Report counts considered, indexed, binary, unsupported and failed files
// - Syntax errors are reported with their line and do not abort the run
// - The index directory inside the root is never indexed
// - Re-running drops artifacts of deleted files
// - An artifact that cannot be written fails only its own file
// - Cancellation aborts without writing a manifest
// - A second concurrent run is refused by the index lock
// - Invalid configuration is rejected

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "app.py", "import os\n\n\ndef main():\n    \"\"\"Entry point.\"\"\"\n    return 0\n")
	writeFile(t, root, "pkg/models.py", "class User:\n    def name(self):\n        return 'u'\n")
	writeFile(t, root, "pkg/stubs.pyi", "def f(x: int) -> int: ...\n")
	writeFile(t, root, "broken.py", "def ok():\n    pass\n\ndef bad(:\n    pass\n")
	writeFile(t, root, "README.md", "# readme\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.py"), []byte{0x00, 0x01, 0x02}, 0644))
	return root
}

func testConfig(root string) *Config {
	cfg := DefaultConfig(root)
	cfg.Include = []string{"*"}
	cfg.Workers = 2
	return cfg
}

func TestIndexer_FullRun(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	idx, err := New(testConfig(root))
	require.NoError(t, err)

	report, err := idx.Index(context.Background())
	require.NoError(t, err)

	// Test: report counts
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 6, report.Considered)
	assert.Equal(t, 3, report.Indexed)
	assert.Equal(t, 1, report.SkippedBinary)
	assert.Equal(t, 1, report.SkippedUnsupported)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "broken.py", report.Failed[0].Path)
	assert.Equal(t, 4, report.Failed[0].Line)
	assert.Positive(t, report.Duration)

	// Test: manifest lists parsed files in path order
	indexDir := idx.Config().IndexDir
	m, err := storage.ReadManifest(indexDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "pkg/models.py", "pkg/stubs.pyi"}, m.Paths())
	assert.Equal(t, report.RunID, m.RunID)

	entry, ok := m.Lookup("pkg/models.py")
	require.True(t, ok)
	assert.Equal(t, "environ_pkg@models_py.json", entry.Artifact)
	source, err := os.ReadFile(filepath.Join(root, "pkg", "models.py"))
	require.NoError(t, err)
	assert.Equal(t, storage.HashSource(source), entry.SourceHash)

	// Test: artifact round trip carries the root-relative path
	structure, err := storage.ReadArtifact(indexDir, entry.Artifact)
	require.NoError(t, err)
	assert.Equal(t, "pkg/models.py", structure.FilePath)
	require.Len(t, structure.Classes, 1)
	assert.Equal(t, "User", structure.Classes[0].Name)

	// Test: catalog built alongside
	catalog, err := storage.OpenCatalog(indexDir)
	require.NoError(t, err)
	defer catalog.Close()
	syms, err := catalog.FindSymbols("main", "")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "app.py", syms[0].FilePath)
}

func TestIndexer_DoesNotIndexItsOwnOutput(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	cfg := testConfig(root)
	cfg.Exclude = nil
	cfg.IndexDir = "out"

	idx, err := New(cfg)
	require.NoError(t, err)

	first, err := idx.Index(context.Background())
	require.NoError(t, err)
	second, err := idx.Index(context.Background())
	require.NoError(t, err)

	// Test: artifacts and manifest of the first run are not considered by the second
	assert.Equal(t, first.Considered, second.Considered)
	assert.DirExists(t, filepath.Join(root, "out"))
}

func TestIndexer_RerunPrunesDeletedFiles(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	idx, err := New(testConfig(root))
	require.NoError(t, err)

	_, err = idx.Index(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "pkg", "models.py")))
	report, err := idx.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pruned)

	indexDir := idx.Config().IndexDir
	assert.NoFileExists(t, filepath.Join(indexDir, storage.ArtifactName("pkg/models.py")))
	m, err := storage.ReadManifest(indexDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "pkg/stubs.pyi"}, m.Paths())
}

func TestIndexer_ArtifactWriteFailureIsPerFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "ok.py", "def ok():\n    pass\n")
	// Every component is a legal name, but the flattened artifact name exceeds 255 bytes.
	long := strings.Repeat("a", 120) + "/" + strings.Repeat("b", 120) + "/" + strings.Repeat("c", 40) + ".py"
	writeFile(t, root, long, "def deep():\n    pass\n")

	idx, err := New(testConfig(root))
	require.NoError(t, err)

	report, err := idx.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, long, report.Failed[0].Path)
	assert.Contains(t, report.Failed[0].Reason, "failed to write artifact")

	// Test: the manifest is still published without the failed file
	m, err := storage.ReadManifest(idx.Config().IndexDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.py"}, m.Paths())
}

// cancellingParser cancels the run while the first file is in flight.
type cancellingParser struct {
	cancel context.CancelFunc
	once   sync.Once
	inner  Parser
}

func (p *cancellingParser) ParseSource(path string, source []byte) (*extraction.FileStructure, error) {
	p.once.Do(p.cancel)
	return p.inner.ParseSource(path, source)
}

func TestIndexer_CancellationWritesNoManifest(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(root)
	cfg.Workers = 1
	idx, err := newIndexer(cfg, &cancellingParser{cancel: cancel, inner: parsers.NewPythonParser()}, nil)
	require.NoError(t, err)

	_, err = idx.Index(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	indexDir := idx.Config().IndexDir
	assert.NoFileExists(t, filepath.Join(indexDir, storage.ManifestFile))
	assert.NoFileExists(t, filepath.Join(indexDir, storage.CatalogFile))

	// Test: the in-flight file produced no artifact
	entries, err := os.ReadDir(indexDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, storage.IsArtifactName(e.Name()), "unexpected artifact %s", e.Name())
	}
}

func TestIndexer_LockedIndex(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	idx, err := New(testConfig(root))
	require.NoError(t, err)

	lock, err := storage.AcquireLock(idx.Config().IndexDir)
	require.NoError(t, err)
	defer lock.Release()

	_, err = idx.Index(context.Background())
	assert.ErrorIs(t, err, storage.ErrIndexLocked)
}

func TestIndexer_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig(t.TempDir())
	cfg.Workers = 0
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig(t.TempDir())
	cfg.Include = []string{"[bad"}
	_, err = New(cfg)
	assert.Error(t, err)
}

// recordingProgress counts callbacks.
type recordingProgress struct {
	NoOpProgressReporter
	processed []string
	completed *Report
}

func (r *recordingProgress) OnFileProcessed(fileName string) { r.processed = append(r.processed, fileName) }
func (r *recordingProgress) OnComplete(report *Report)       { r.completed = report }

func TestIndexer_ProgressCallbacks(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	progress := &recordingProgress{}
	idx, err := NewWithProgress(testConfig(root), progress)
	require.NoError(t, err)

	report, err := idx.Index(context.Background())
	require.NoError(t, err)
	assert.Len(t, progress.processed, 4)
	assert.Same(t, report, progress.completed)
}
