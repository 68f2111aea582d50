package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives a freshly loaded config together with the indicator
// change relative to the previously loaded file. It is only called when the
// indicator section changed.
type ReloadFunc func(cfg *Config, change Change)

// Watcher reloads a config file when it changes on disk. Only the indicator
// section is applied live; server and tracker settings need a restart.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	onReload ReloadFunc
	logger   *slog.Logger

	mu      sync.Mutex
	current *Config

	done chan struct{}
}

// NewWatcher watches the directory holding path, so editors that replace
// the file through a rename are still picked up.
func NewWatcher(path string, current *Config, onReload ReloadFunc, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	path = filepath.Clean(path)
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		path:     path,
		fsw:      fsw,
		onReload: onReload,
		logger:   logger,
		current:  current,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.Reload(); err != nil {
				w.logger.Warn("config reload failed, keeping previous settings", "path", w.path, "error", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Reload reads the file again and reports an indicator change, if any, to
// the reload callback. A file that fails to load leaves the current config
// in place.
func (w *Watcher) Reload() error {
	next, err := Load(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	w.mu.Unlock()

	change := Diff(prev.Indicator, next.Indicator)
	if change.IsEmpty() {
		w.logger.Debug("config reloaded, indicator unchanged", "path", w.path)
		return nil
	}
	w.logger.Info("config reloaded", "path", w.path)
	if w.onReload != nil {
		w.onReload(next, change)
	}
	return nil
}
