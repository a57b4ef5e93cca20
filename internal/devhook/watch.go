package devhook

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agentic-research/routemap/internal/logging"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changes to a set of files once writes settle. Parent
// directories are watched rather than the files, so editors that save by
// rename are still seen.
type Watcher struct {
	debounce time.Duration
	logger   logging.Logger
	fsw      *fsnotify.Watcher

	mu     sync.Mutex
	wanted map[string]bool
	dirs   map[string]bool
}

// NewWatcher returns a Watcher with no files. Call Set, then Run.
func NewWatcher(debounce time.Duration, logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
		wanted:   map[string]bool{},
		dirs:     map[string]bool{},
	}, nil
}

// Set replaces the watched files. It may be called while Run is active.
func (w *Watcher) Set(files []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wanted := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		f = filepath.Clean(f)
		wanted[f] = true
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			w.logger.Warn("could not watch %s: %v", dir, err)
			delete(dirs, dir)
		}
	}
	for dir := range w.dirs {
		if !dirs[dir] {
			_ = w.fsw.Remove(dir)
		}
	}
	w.wanted = wanted
	w.dirs = dirs
}

func (w *Watcher) watches(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wanted[path]
}

// Run calls onChange with every file changed during a quiet period of the
// debounce duration, sorted. It blocks until ctx is done and closes the
// watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer func() { _ = w.fsw.Close() }()

	var (
		mu      sync.Mutex
		timer   *time.Timer
		pending = map[string]bool{}
	)
	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		pending = map[string]bool{}
		mu.Unlock()
		if len(paths) == 0 {
			return
		}
		sort.Strings(paths)
		onChange(paths)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) || !w.watches(name) {
				continue
			}
			mu.Lock()
			pending[name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, flush)
			mu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}
