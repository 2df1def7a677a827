package luacell

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloader watches the working directory for Lua module changes and drops
// changed modules from the require cache, so the next require re-reads
// them. Watching covers the directory tree as of start plus directories
// created while running.
type reloader struct {
	ctx     *Context
	baseDir string
	watcher *fsnotify.Watcher

	pending    map[string]time.Time
	debounceMu sync.Mutex
	delay      time.Duration

	done chan struct{}
}

func startReloader(ctx *Context, baseDir string) (*reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	r := &reloader{
		ctx:     ctx,
		baseDir: baseDir,
		watcher: watcher,
		pending: make(map[string]time.Time),
		delay:   100 * time.Millisecond,
		done:    make(chan struct{}),
	}

	err = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	go r.eventLoop()
	go r.debounceLoop()

	ctx.debugf("watching %s for module changes", baseDir)
	return r, nil
}

func (r *reloader) stop() {
	close(r.done)
	r.watcher.Close()
}

// eventLoop processes file system events.
func (r *reloader) eventLoop() {
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			r.handleEvent(event)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.ctx.debugf("watcher error: %v", err)
		}
	}
}

// handleEvent queues changed module files and picks up new directories.
func (r *reloader) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			r.watcher.Add(event.Name)
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".lua") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	r.debounceMu.Lock()
	r.pending[event.Name] = time.Now()
	r.debounceMu.Unlock()
}

// debounceLoop invalidates pending modules after the debounce delay.
func (r *reloader) debounceLoop() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.processPending()
		}
	}
}

// processPending invalidates modules whose last event is older than the
// debounce delay. Editors often write a file several times in a burst;
// debouncing folds the burst into one invalidation.
func (r *reloader) processPending() {
	r.debounceMu.Lock()
	now := time.Now()
	var ready []string
	for path, queuedAt := range r.pending {
		if now.Sub(queuedAt) >= r.delay {
			ready = append(ready, path)
			delete(r.pending, path)
		}
	}
	r.debounceMu.Unlock()

	for _, path := range ready {
		name := r.moduleName(path)
		if name == "" {
			continue
		}
		if r.ctx.InvalidateModule(name) {
			r.ctx.debugf("module %s changed, dropped from require cache", name)
		}
	}
}

// moduleName maps a watched file back to its require name: base/a/b.lua
// is module "a.b".
func (r *reloader) moduleName(path string) string {
	rel, err := filepath.Rel(r.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	rel = strings.TrimSuffix(rel, ".lua")
	return strings.ReplaceAll(rel, string(filepath.Separator), ".")
}
