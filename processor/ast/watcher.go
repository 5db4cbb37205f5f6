package ast

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce  = 100 * time.Millisecond
	eventBufferSize  = 100
	ignoredDirectory = "node_modules"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Root is the directory tree to watch.
	Root string

	// Include lists doublestar patterns, relative to Root, selecting the
	// files that are parsed. Empty selects every supported file.
	Include []string

	// Exclude lists doublestar patterns, relative to Root, for paths that
	// are never watched or parsed.
	Exclude []string

	// Registry selects the parser for each file. Defaults to DefaultRegistry.
	Registry *ParserRegistry

	// DebounceDelay is the quiet period after the last change before
	// pending files are parsed. Defaults to 100ms.
	DebounceDelay time.Duration

	Logger *slog.Logger
}

// WatchOperation is the kind of change reported for a file.
type WatchOperation string

const (
	OpCreate WatchOperation = "create"
	OpModify WatchOperation = "modify"
	OpDelete WatchOperation = "delete"
)

// WatchEvent reports one changed source file.
type WatchEvent struct {
	// Path is relative to the watched root.
	Path      string
	Operation WatchOperation

	// Result is nil for deletes and failures. The receiver owns it and
	// must Close it.
	Result *ParseResult
	Error  error
}

// Watcher parses supported source files under a root as they change.
// A file is only reported when its content hash differs from the last
// one seen, so saving without edits produces no event.
type Watcher struct {
	root     string
	include  []string
	exclude  []string
	registry *ParserRegistry
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]struct{} // absolute paths awaiting a parse

	hashMu sync.RWMutex
	hashes map[string]string // relative path → content hash

	events chan WatchEvent
}

// NewWatcher validates config and opens the underlying fsnotify watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	for _, pattern := range config.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %q", pattern)
		}
	}
	for _, pattern := range config.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     config.Root,
		include:  config.Include,
		exclude:  config.Exclude,
		registry: config.Registry,
		fsw:      fsw,
		logger:   config.Logger,
		debounce: config.DebounceDelay,
		pending:  make(map[string]struct{}),
		hashes:   make(map[string]string),
		events:   make(chan WatchEvent, eventBufferSize),
	}
	if w.registry == nil {
		w.registry = DefaultRegistry
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	return w, nil
}

// Events returns the channel of parsed changes. It is closed once the
// watcher's context is cancelled or Stop is called.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start watches every directory under the root and processes changes in
// the background until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		w.watchDir(path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	go w.run(ctx)

	w.logger.Info("Watching for changes", "root", w.root, "debounce", w.debounce)
	return nil
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// SetHash records the known content hash for a path relative to the root.
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	w.hashes[path] = hash
	w.hashMu.Unlock()
}

// GetHash returns the last content hash seen for a relative path.
func (w *Watcher) GetHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

func (w *Watcher) forget(path string) {
	w.hashMu.Lock()
	delete(w.hashes, path)
	w.hashMu.Unlock()
}

// skipDir reports whether a directory below the root is never watched:
// dot directories, node_modules, and excluded paths.
func (w *Watcher) skipDir(path string) bool {
	if path == w.root {
		return false
	}
	base := filepath.Base(path)
	if base == ignoredDirectory || strings.HasPrefix(base, ".") {
		return true
	}
	return w.excluded(path)
}

func (w *Watcher) excluded(path string) bool {
	return w.matchAny(w.exclude, path)
}

// included reports whether a file is selected by the include patterns.
func (w *Watcher) included(path string) bool {
	return len(w.include) == 0 || w.matchAny(w.include, path)
}

func (w *Watcher) matchAny(patterns []string, path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) watchDir(path string) {
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		return
	}
	w.logger.Debug("Watching directory", "path", path)
}

// run collects filesystem events and flushes them once no new change has
// arrived for the debounce period.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.events)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.queue(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// queue records a changed file, or starts watching a new directory.
// It reports whether a file was queued.
func (w *Watcher) queue(event fsnotify.Event) bool {
	path := event.Name

	if !w.registry.Supports(path) {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !w.skipDir(path) {
				w.watchDir(path)
			}
		}
		return false
	}
	if w.excluded(path) || !w.included(path) {
		return false
	}

	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.mu.Unlock()

	w.logger.Debug("Change queued", "path", path, "op", event.Op.String())
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	for path := range batch {
		if ctx.Err() != nil {
			return
		}
		ev, ok := w.inspect(ctx, path)
		if !ok {
			continue
		}
		if !w.emit(ctx, ev) && ev.Result != nil {
			// The change was never reported; the next save must be.
			w.forget(ev.Path)
		}
	}
}

// inspect parses one queued file and decides what, if anything, to report.
func (w *Watcher) inspect(ctx context.Context, path string) (WatchEvent, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	ev := WatchEvent{Path: rel}

	// A rename or remove leaves the old name missing.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		w.forget(rel)
		ev.Operation = OpDelete
		return ev, true
	}

	parser, err := w.registry.CreateParserForExtension(filepath.Ext(path), w.root)
	if err != nil {
		ev.Error = err
		return ev, true
	}
	result, err := parser.ParseFile(ctx, path)
	if err != nil {
		ev.Error = err
		return ev, true
	}

	previous, known := w.GetHash(rel)
	if known && previous == result.Hash {
		result.Close()
		return ev, false
	}
	w.SetHash(rel, result.Hash)

	ev.Operation = OpModify
	if !known {
		ev.Operation = OpCreate
	}
	ev.Result = result
	return ev, true
}

// emit delivers ev without blocking and reports whether it was delivered.
// A dropped event's parse result is released here.
func (w *Watcher) emit(ctx context.Context, ev WatchEvent) bool {
	select {
	case w.events <- ev:
		return true
	case <-ctx.Done():
	default:
		w.logger.Warn("Event channel full, dropping event", "path", ev.Path)
	}
	if ev.Result != nil {
		ev.Result.Close()
	}
	return false
}
