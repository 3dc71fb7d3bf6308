package fsdb

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/aidanlsb/moodb/internal/paths"
)

// Op is the kind of change a notification reports.
type Op int

const (
	Added Op = iota + 1
	Changed
	Removed
)

func (o Op) String() string {
	switch o {
	case Added:
		return "added"
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Change is one notification: a file under the root was added, changed or
// removed. Path has the form "<id>/<file>".
type Change struct {
	Op   Op
	Path string
}

// Watcher monitors a store root and reports file changes.
type Watcher struct {
	root string

	// Configuration
	debounceDelay time.Duration
	logger        *zap.Logger

	// Internal state
	fsWatcher *fsnotify.Watcher
	pending   map[string]pendingChange
	seq       uint64
	mu        sync.Mutex
	ready     chan struct{}
	readyOnce sync.Once

	// dirs and files are the store-relative paths seen so far. Only the
	// event loop touches them.
	dirs  map[string]struct{}
	files map[string]struct{}
}

type pendingChange struct {
	op  Op
	at  time.Time
	seq uint64
}

// WatcherConfig holds configuration options for the Watcher.
type WatcherConfig struct {
	Root          string
	DebounceDelay time.Duration // Default: 100ms
	Logger        *zap.Logger
}

// NewWatcher creates a Watcher with the given configuration.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("store root is required")
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		root:          filepath.Clean(cfg.Root),
		debounceDelay: debounce,
		logger:        logger,
		pending:       make(map[string]pendingChange),
		ready:         make(chan struct{}),
		dirs:          make(map[string]struct{}),
		files:         make(map[string]struct{}),
	}, nil
}

// Ready is closed once the initial watches are in place.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Start watches the root and calls handle for each debounced change. handle
// is only ever called from one goroutine, one change at a time.
// It blocks until the context is cancelled. A Watcher is started once.
func (w *Watcher) Start(ctx context.Context, handle func(Change)) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.root, false); err != nil {
		return fmt.Errorf("failed to watch store: %w", err)
	}
	w.logger.Debug("watching store", zap.String("root", w.root))
	w.readyOnce.Do(func() { close(w.ready) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processDebounced(ctx, handle)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// handleEvent translates one fsnotify event into pending changes.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok || rel == "" || paths.IsHidden(rel) {
		return
	}

	w.logger.Debug("event", zap.Stringer("op", event.Op), zap.String("path", rel))

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Files can land in a new directory before it is watched.
			if err := w.addWatchRecursive(event.Name, true); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", rel), zap.Error(err))
			}
			return
		}
		w.files[rel] = struct{}{}
		w.schedule(rel, Added)
	case event.Has(fsnotify.Write):
		w.files[rel] = struct{}{}
		w.schedule(rel, Changed)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if _, isDir := w.dirs[rel]; isDir {
			w.dropDir(rel)
			return
		}
		// Paths never seen include a moved directory's second event from its
		// own watch.
		if _, known := w.files[rel]; !known {
			return
		}
		delete(w.files, rel)
		w.schedule(rel, Removed)
	}
}

// dropDir handles a watched directory that was deleted or moved away. Its
// watches are released and every file known under it is reported removed,
// the descriptor of a top-level object directory first.
func (w *Watcher) dropDir(rel string) {
	prefix := rel + "/"
	for d := range w.dirs {
		if d != rel && !strings.HasPrefix(d, prefix) {
			continue
		}
		delete(w.dirs, d)
		// The kernel may already have dropped the watch.
		if err := w.fsWatcher.Remove(filepath.Join(w.root, filepath.FromSlash(d))); err != nil {
			w.logger.Debug("stale watch already gone", zap.String("path", d), zap.Error(err))
		}
	}

	var gone []string
	for f := range w.files {
		if strings.HasPrefix(f, prefix) {
			gone = append(gone, f)
			delete(w.files, f)
		}
	}
	sort.Strings(gone)

	if !strings.Contains(rel, "/") {
		descriptor := paths.DescriptorPath(rel)
		w.schedule(descriptor, Removed)
		gone = slices.DeleteFunc(gone, func(f string) bool { return f == descriptor })
	}
	for _, f := range gone {
		w.schedule(f, Removed)
	}
	w.logger.Debug("directory gone", zap.String("path", rel), zap.Int("files", len(gone)))
}

// schedule records a change for path, merging it with one already pending.
func (w *Watcher) schedule(rel string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.pending[rel]; ok && op != Removed {
		switch prev.op {
		case Added:
			op = Added
		case Removed:
			op = Changed
		}
	}
	w.seq++
	w.pending[rel] = pendingChange{op: op, at: time.Now(), seq: w.seq}
}

// processDebounced hands pending changes to handle after the debounce delay.
func (w *Watcher) processDebounced(ctx context.Context, handle func(Change)) {
	tick := w.debounceDelay / 2
	if tick > 50*time.Millisecond || tick <= 0 {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ch := range w.takeReady(time.Now()) {
				handle(ch)
			}
		}
	}
}

// takeReady removes and returns the changes whose debounce delay has passed,
// in the order they were last scheduled.
func (w *Watcher) takeReady(now time.Time) []Change {
	w.mu.Lock()
	defer w.mu.Unlock()

	type readyChange struct {
		Change
		seq uint64
	}
	var ready []readyChange
	for rel, p := range w.pending {
		if now.Sub(p.at) >= w.debounceDelay {
			ready = append(ready, readyChange{Change{Op: p.op, Path: rel}, p.seq})
			delete(w.pending, rel)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].seq < ready[j].seq })

	out := make([]Change, len(ready))
	for i, r := range ready {
		out[i] = r.Change
	}
	return out
}

// addWatchRecursive adds a directory and all subdirectories to the watcher.
// With announce set, files already present are scheduled as added.
func (w *Watcher) addWatchRecursive(root string, announce bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		rel, ok := w.relative(path)
		if ok && rel != "" && paths.IsHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fsWatcher.Add(path); err != nil {
				w.logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(err))
				return nil
			}
			if ok {
				w.dirs[rel] = struct{}{}
			}
			return nil
		}
		if !ok {
			return nil
		}
		w.files[rel] = struct{}{}
		if announce {
			w.schedule(rel, Added)
		}
		return nil
	})
}

// relative converts an absolute event path to a store-relative one.
func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", true
	}
	if rel == ".." || len(rel) > 2 && rel[:3] == "../" {
		return "", false
	}
	return rel, true
}
