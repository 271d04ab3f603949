package indexer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for IndexerWatcher:
// - Watcher requires an indexer built by New
// - File modification triggers a full reindex
// - Rapid changes are debounced into one run
// - shouldProcessEvent ignores unsupported, excluded and chmod-only events
// - shouldWatchDirectory respects pruned directories
// - Stop is idempotent

func newTestWatcher(t *testing.T, root string, onReindex func(*Report, error)) *IndexerWatcher {
	t.Helper()
	idx, err := New(testConfig(root))
	require.NoError(t, err)

	iw, err := NewIndexerWatcher(idx, onReindex)
	require.NoError(t, err)
	iw.debounceTime = 50 * time.Millisecond
	t.Cleanup(iw.Stop)
	return iw
}

type fakeIndexer struct{}

func (fakeIndexer) Index(ctx context.Context) (*Report, error) { return nil, nil }
func (fakeIndexer) Config() *Config                            { return nil }

func TestNewIndexerWatcher_RequiresIndexer(t *testing.T) {
	t.Parallel()

	_, err := NewIndexerWatcher(fakeIndexer{}, nil)
	assert.Error(t, err)
}

func TestIndexerWatcher_ReindexOnChange(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	reports := make(chan *Report, 4)
	iw := newTestWatcher(t, root, func(r *Report, err error) {
		if err == nil {
			reports <- r
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	iw.Start(ctx)

	// Test: several quick writes collapse into one run
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "new_module.py", "y = 2\n")

	select {
	case report := <-reports:
		assert.Equal(t, 4, report.Indexed)
	case <-time.After(5 * time.Second):
		t.Fatal("reindex was not triggered")
	}

	select {
	case <-reports:
		t.Fatal("changes were not debounced into a single run")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestIndexerWatcher_EventFiltering(t *testing.T) {
	t.Parallel()

	root := writeProject(t)
	iw := newTestWatcher(t, root, nil)

	event := func(rel string, op fsnotify.Op) fsnotify.Event {
		return fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(rel)), Op: op}
	}

	assert.True(t, iw.shouldProcessEvent(event("app.py", fsnotify.Write)))
	assert.True(t, iw.shouldProcessEvent(event("pkg/new.pyi", fsnotify.Create)))
	assert.True(t, iw.shouldProcessEvent(event("pkg/models.py", fsnotify.Remove)))
	assert.False(t, iw.shouldProcessEvent(event("README.md", fsnotify.Write)))
	assert.False(t, iw.shouldProcessEvent(event("app.py", fsnotify.Chmod)))
	assert.False(t, iw.shouldProcessEvent(event("node_modules/x.py", fsnotify.Write)))
	assert.False(t, iw.shouldProcessEvent(event(".pyscope/index/manifest.json", fsnotify.Write)))

	assert.True(t, iw.shouldWatchDirectory(root))
	assert.True(t, iw.shouldWatchDirectory(filepath.Join(root, "pkg")))
	assert.False(t, iw.shouldWatchDirectory(filepath.Join(root, ".git")))
	assert.False(t, iw.shouldWatchDirectory(filepath.Join(root, ".pyscope")))

	iw.Stop()
	iw.Stop()
}
