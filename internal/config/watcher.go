package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lumenshell/lumen/internal/eventloop"
	"github.com/lumenshell/lumen/internal/keyfile"
	"github.com/lumenshell/lumen/internal/logging"
	"github.com/lumenshell/lumen/internal/observe"
)

// DebounceDelay is how long the watcher coalesces file-system events
// before attempting a reload. Events arriving while a reload is pending
// are no-ops; the pending timer is neither reset nor extended.
const DebounceDelay = 250 * time.Millisecond

// Watcher watches the configuration file for changes, reloads it with
// debouncing, and publishes a new tree only when it differs from the
// current one. All state is confined to the event loop.
type Watcher struct {
	loop *eventloop.Loop
	fsw  *fsnotify.Watcher

	// path is the configured file path; target is the resolved symlink
	// target when path is a symlink, empty otherwise. target is
	// re-resolved whenever an event for path itself fires, to follow
	// symlink reassignment.
	path   string
	target string

	current *Config
	pending *eventloop.Timer
	changed observe.Signal[*Config]

	done chan struct{}
}

// NewWatcher loads the initial tree and starts watching path. If the
// file does not exist, a default tree is serialized to it first.
func NewWatcher(loop *eventloop.Loop, path string) (*Watcher, error) {
	w := &Watcher{
		loop: loop,
		path: filepath.Clean(path),
		done: make(chan struct{}),
	}

	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		def := Default()
		store := keyfile.New()
		def.Store(store)
		if err := store.WriteFile(w.path); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		w.current = def
		logging.Info("Wrote default configuration", zap.String("path", w.path))
	} else {
		store, err := keyfile.ParseFile(w.path)
		if err != nil {
			// A malformed file at startup behaves like a malformed
			// reload: keep the defaults and warn.
			logging.Warn("Configuration unreadable at startup, using defaults",
				zap.String("path", w.path), zap.Error(err))
			w.current = Default()
		} else {
			w.current = Load(store)
		}
	}

	w.target = resolveTarget(w.path)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw
	if err := w.addWatches(); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.watchLoop()
	return w, nil
}

// resolveTarget returns the fully resolved path when p is (or traverses)
// a symlink, and "" when it already resolves to itself or cannot be
// resolved.
func resolveTarget(p string) string {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return ""
	}
	resolved = filepath.Clean(resolved)
	if resolved == p {
		return ""
	}
	return resolved
}

// addWatches watches the parent directories of the path and its symlink
// target. Watching directories instead of the files themselves survives
// the write-temp-then-rename pattern editors use.
func (w *Watcher) addWatches() error {
	dirs := map[string]bool{filepath.Dir(w.path): true}
	if w.target != "" {
		dirs[filepath.Dir(w.target)] = true
	}
	for dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return nil
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Clean(ev.Name)
			if name != w.path && (w.target == "" || name != w.target) {
				continue
			}
			primary := name == w.path
			w.loop.Post(func() { w.onFileEvent(primary) })
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("Config watcher error", zap.Error(err))
		}
	}
}

// onFileEvent runs on the loop for every relevant change-or-create
// event. An event for the primary path re-resolves the symlink target
// before arming the reload timer.
func (w *Watcher) onFileEvent(primary bool) {
	if primary {
		if target := resolveTarget(w.path); target != w.target {
			w.target = target
			if err := w.addWatches(); err != nil {
				logging.Warn("Failed to update config watches", zap.Error(err))
			}
		}
	}
	if w.pending != nil {
		// A reload is already pending; coalesce.
		return
	}
	w.pending = w.loop.After(DebounceDelay, w.reload)
}

// reload performs a full load from defaults and publishes the new tree
// only when it differs from the current one.
func (w *Watcher) reload() {
	w.pending = nil

	store, err := keyfile.ParseFile(w.path)
	if err != nil {
		logging.Warn("Configuration reload abandoned",
			zap.String("path", w.path), zap.Error(err))
		return
	}

	next := Load(store)
	if next.Equal(w.current) {
		return
	}
	w.current = next
	logging.Info("Configuration reloaded", zap.String("path", w.path))
	w.changed.Emit(next)
}

// Current returns the tree most recently published (or loaded at
// startup). Must be called on the loop.
func (w *Watcher) Current() *Config {
	return w.current
}

// Subscribe registers fn to run, on the loop, whenever a reload
// publishes a tree that differs from the current one.
func (w *Watcher) Subscribe(fn func(*Config)) (cancel func()) {
	return w.changed.Subscribe(fn)
}

// Close stops watching. Pending reloads are cancelled.
func (w *Watcher) Close() error {
	close(w.done)
	if w.pending != nil {
		w.pending.Stop()
	}
	return w.fsw.Close()
}
