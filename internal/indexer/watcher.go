package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// IndexerWatcher watches the root directory and re-runs a full index after
// relevant changes settle.
type IndexerWatcher struct {
	indexer      *indexer
	rootDir      string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	onReindex    func(*Report, error)
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewIndexerWatcher creates a new file watcher for the indexer. onReindex,
// when non-nil, receives the outcome of every triggered run.
func NewIndexerWatcher(idx Indexer, onReindex func(*Report, error)) (*IndexerWatcher, error) {
	indexerImpl, ok := idx.(*indexer)
	if !ok {
		return nil, fmt.Errorf("watcher requires an indexer created by New, got %T", idx)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	iw := &IndexerWatcher{
		indexer:      indexerImpl,
		rootDir:      indexerImpl.config.RootDir,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		onReindex:    onReindex,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	if err := iw.addDirectoriesRecursively(iw.rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	return iw, nil
}

// Start begins watching for file changes.
func (iw *IndexerWatcher) Start(ctx context.Context) {
	go iw.watch(ctx)
}

// Stop stops the file watcher and waits for the event loop to exit.
func (iw *IndexerWatcher) Stop() {
	iw.stopOnce.Do(func() {
		close(iw.stopCh)
		<-iw.doneCh
		iw.watcher.Close()
	})
}

// watch is the main event loop with debouncing logic.
func (iw *IndexerWatcher) watch(ctx context.Context) {
	defer close(iw.doneCh)

	var debounceTimer *time.Timer
	reindexCh := make(chan struct{}, 1)
	changed := 0

	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-iw.stopCh:
			stopTimer()
			return

		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}

			// New directories must be watched even when no file in them matters yet.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if iw.shouldWatchDirectory(event.Name) {
						if err := iw.addDirectoriesRecursively(event.Name); err != nil {
							log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
						}
					}
					continue
				}
			}

			if !iw.shouldProcessEvent(event) {
				continue
			}
			changed++

			stopTimer()
			debounceTimer = time.AfterFunc(iw.debounceTime, func() {
				select {
				case reindexCh <- struct{}{}:
				default:
				}
			})

		case <-reindexCh:
			iw.triggerReindex(ctx, changed)
			changed = 0

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// triggerReindex executes a full run.
func (iw *IndexerWatcher) triggerReindex(ctx context.Context, changed int) {
	if changed == 0 {
		return
	}

	log.Printf("Reindexing due to %d change(s)...", changed)
	report, err := iw.indexer.Index(ctx)
	if err != nil {
		log.Printf("Error during reindex: %v", err)
	} else {
		log.Printf("Reindex complete in %v (%d indexed, %d failed)", report.Duration, report.Indexed, len(report.Failed))
	}

	if iw.onReindex != nil {
		iw.onReindex(report, err)
	}
}

// shouldProcessEvent checks if an event should trigger reindexing.
func (iw *IndexerWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	relPath, err := filepath.Rel(iw.rootDir, event.Name)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	if !iw.indexer.supported(relPath) {
		return false
	}
	return iw.indexer.filter.Matches(relPath)
}

// shouldWatchDirectory checks if a directory should be watched.
func (iw *IndexerWatcher) shouldWatchDirectory(path string) bool {
	relPath, err := filepath.Rel(iw.rootDir, path)
	if err != nil {
		return false
	}
	if relPath == "." {
		return true
	}
	return !iw.indexer.filter.PrunesDir(filepath.ToSlash(relPath))
}

// addDirectoriesRecursively adds all non-pruned directories in the tree to the watcher.
func (iw *IndexerWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if !iw.shouldWatchDirectory(path) {
			return filepath.SkipDir
		}

		if err := iw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
