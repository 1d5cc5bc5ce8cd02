package tools

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// Watcher reloads the index when search data files change on disk.
// Bursts of events (a Doxygen run rewrites every file) collapse into one
// reload after the directory has been quiet for the debounce period.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reload   func(context.Context) error
	sources  map[string]bool // Source directories, re-watched when recreated

	mu         sync.Mutex
	lastChange time.Time // Zero when nothing is pending

	ctx    context.Context
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// StartWatcher watches every source directory and reloads on change
func StartWatcher() (*Watcher, error) {
	var dirs []string
	for _, s := range configuredSources() {
		dirs = append(dirs, sourceDir(s))
	}
	return newWatcher(dirs, watchDebounce, reloadFromDisk)
}

func newWatcher(dirs []string, debounce time.Duration, reload func(context.Context) error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	watched := 0
	sources := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		sources[dir] = true
		// Downloads replace the directory, so watch its parent too
		for _, d := range []string{dir, filepath.Dir(dir)} {
			if info, err := os.Stat(d); err != nil || !info.IsDir() {
				continue
			}
			if err := fsw.Add(d); err != nil {
				log.Printf("Warning: Cannot watch %s: %v", d, err)
				continue
			}
			watched++
		}
	}
	if watched == 0 {
		fsw.Close()
		return nil, fmt.Errorf("no search data directory to watch")
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher:  fsw,
		debounce: debounce,
		reload:   reload,
		sources:  sources,
		ctx:      ctx,
		cancel:   cancel,
	}

	w.done.Add(2)
	go w.processEvents()
	go w.processPending()

	log.Printf("✓ Watching %d directories for search data changes", watched)
	return w, nil
}

func (w *Watcher) processEvents() {
	defer w.done.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isSearchDataEvent(event) {
				continue
			}
			if event.Has(fsnotify.Create) && w.sources[filepath.Clean(event.Name)] {
				w.rewatch(event.Name)
			}
			w.mu.Lock()
			w.lastChange = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: Watcher error: %v", err)
		}
	}
}

// rewatch adds a source directory that replaced the one being watched.
// The kernel drops the watch when the old directory goes away.
func (w *Watcher) rewatch(dir string) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		log.Printf("Warning: Cannot watch %s: %v", dir, err)
		return
	}
	log.Printf("✓ Watching replaced directory %s", dir)
}

// isSearchDataEvent filters out chmod noise and unrelated files.
// Directory events count: a download swaps the whole directory.
func isSearchDataEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasSuffix(name, ".js") {
		return true
	}
	return filepath.Ext(name) == "" && !strings.HasPrefix(name, ".")
}

func (w *Watcher) processPending() {
	defer w.done.Done()

	ticker := time.NewTicker(w.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case now := <-ticker.C:
			w.mu.Lock()
			due := !w.lastChange.IsZero() && now.Sub(w.lastChange) >= w.debounce
			if due {
				w.lastChange = time.Time{}
			}
			w.mu.Unlock()

			if !due {
				continue
			}
			log.Printf("Search data changed, reloading...")
			if err := w.reload(w.ctx); err != nil {
				log.Printf("Warning: Reload after change failed: %v", err)
			}
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.done.Wait()
	return err
}
