package mcp

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mvp-joe/pyscope/internal/storage"
)

// Reloadable is implemented by *query.Engine.
type Reloadable interface {
	Reload() error
}

// ManifestWatcher reloads a component whenever an indexing run publishes a new manifest.
type ManifestWatcher struct {
	reloadable   Reloadable
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewManifestWatcher watches indexDir, which must exist.
func NewManifestWatcher(reloadable Reloadable, indexDir string) (*ManifestWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(indexDir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &ManifestWatcher{
		reloadable:   reloadable,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start runs the event loop until ctx is done or Stop is called.
func (mw *ManifestWatcher) Start(ctx context.Context) {
	go mw.watch(ctx)
}

// Stop ends the event loop and closes the fsnotify watcher. Safe to call twice.
func (mw *ManifestWatcher) Stop() {
	mw.stopOnce.Do(func() {
		close(mw.stopCh)
		<-mw.doneCh
		mw.watcher.Close()
	})
}

// watch coalesces manifest events arriving within debounceTime into one reload.
func (mw *ManifestWatcher) watch(ctx context.Context) {
	defer close(mw.doneCh)

	var pending *time.Timer
	reloadCh := make(chan struct{}, 1)
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-mw.stopCh:
			return

		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if !isManifestEvent(event) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(mw.debounceTime, func() {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			})

		case <-reloadCh:
			mw.reload()

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: index watcher error: %v", err)
		}
	}
}

// isManifestEvent reports whether event published or rewrote the manifest.
// Artifacts and the catalog land before the manifest, so they are ignored.
func isManifestEvent(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != storage.ManifestFile {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write) != 0
}

// reload swaps in the new manifest; on failure the previous one stays loaded.
func (mw *ManifestWatcher) reload() {
	start := time.Now()
	if err := mw.reloadable.Reload(); err != nil {
		log.Printf("Warning: failed to reload index: %v (keeping previous manifest)", err)
		return
	}
	log.Printf("[TIMING] Reload index: %v", time.Since(start))
}
