package mcp

// Test Plan for Manifest Watcher:
// 1. NewManifestWatcher - fails for a missing directory
// 2. Writing manifest.json triggers one debounced reload
// 3. Artifact writes alone do not trigger a reload
// 4. Reload errors keep the watcher running
// 5. Stop - idempotent, no panic
// 6. A real engine picks up a new index run

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pyscope/internal/indexer"
	"github.com/mvp-joe/pyscope/internal/storage"
)

// mockReloadable implements Reloadable interface for testing.
type mockReloadable struct {
	reloadCount atomic.Int32
	reloadErr   error
}

func (m *mockReloadable) Reload() error {
	m.reloadCount.Add(1)
	return m.reloadErr
}

func (m *mockReloadable) getReloadCount() int {
	return int(m.reloadCount.Load())
}

func newTestWatcher(t *testing.T, reloadable Reloadable, dir string) *ManifestWatcher {
	t.Helper()
	watcher, err := NewManifestWatcher(reloadable, dir)
	require.NoError(t, err)
	watcher.debounceTime = 50 * time.Millisecond
	watcher.Start(context.Background())
	t.Cleanup(watcher.Stop)
	return watcher
}

func TestManifestWatcher_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := NewManifestWatcher(&mockReloadable{}, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestManifestWatcher_ReloadsOnManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mock := &mockReloadable{}
	newTestWatcher(t, mock, dir)

	// Test: several quick writes collapse into one reload
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, storage.ManifestFile), []byte("{}"), 0644))
	}

	assert.Eventually(t, func() bool { return mock.getReloadCount() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, mock.getReloadCount())
}

func TestManifestWatcher_IgnoresArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mock := &mockReloadable{}
	newTestWatcher(t, mock, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "environ_app_py.json"), []byte("{}"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, mock.getReloadCount())
}

func TestManifestWatcher_ReloadErrorKeepsWatching(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mock := &mockReloadable{reloadErr: errors.New("boom")}
	newTestWatcher(t, mock, dir)

	manifest := filepath.Join(dir, storage.ManifestFile)
	require.NoError(t, os.WriteFile(manifest, []byte("{}"), 0644))
	assert.Eventually(t, func() bool { return mock.getReloadCount() == 1 }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(manifest, []byte("{ }"), 0644))
	assert.Eventually(t, func() bool { return mock.getReloadCount() == 2 }, 2*time.Second, 20*time.Millisecond)
}

func TestManifestWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	watcher, err := NewManifestWatcher(&mockReloadable{}, t.TempDir())
	require.NoError(t, err)
	watcher.Start(context.Background())

	assert.NotPanics(t, func() {
		watcher.Stop()
		watcher.Stop()
	})
}

func TestIsManifestEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"manifest create", fsnotify.Event{Name: "/idx/manifest.json", Op: fsnotify.Create}, true},
		{"manifest write", fsnotify.Event{Name: "/idx/manifest.json", Op: fsnotify.Write}, true},
		{"manifest remove", fsnotify.Event{Name: "/idx/manifest.json", Op: fsnotify.Remove}, false},
		{"artifact", fsnotify.Event{Name: "/idx/environ_a_py.json", Op: fsnotify.Create}, false},
		{"catalog", fsnotify.Event{Name: "/idx/catalog.db", Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isManifestEvent(tt.event))
		})
	}
}

func TestManifestWatcher_EngineSeesNewRun(t *testing.T) {
	t.Parallel()

	engine, root := newIndexedEngine(t)
	newTestWatcher(t, engine, engine.Dir())
	require.Len(t, engine.ListFiles(), 2)

	writeSource(t, root, "extra.py", "def extra():\n    pass\n")

	cfg := indexer.DefaultConfig(root)
	cfg.Workers = 1
	idx, err := indexer.New(cfg)
	require.NoError(t, err)
	_, err = idx.Index(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(engine.ListFiles()) == 3 }, 3*time.Second, 20*time.Millisecond)
}
