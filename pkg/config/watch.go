package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lattice3d/assetstream/internal/logger"
)

// reloadDebounce coalesces the burst of filesystem events an editor or
// atomic rename produces into one reload.
const reloadDebounce = 250 * time.Millisecond

// Watcher watches a configuration file and delivers reloaded configs to a
// callback. Only changes that survive Load (including validation) are
// delivered; a broken edit is logged and the previous configuration stays
// in effect.
type Watcher struct {
	path     string
	onChange func(*Config)

	fw     *fsnotify.Watcher
	stopCh chan struct{}
	once   sync.Once
}

// NewWatcher creates a watcher for the given config file (not yet
// started). Watching the default location requires the file to exist.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	if path == "" {
		path = GetDefaultConfigPath()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, not the file: editors and config management
	// tools replace files by rename, which drops a file-level watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     path,
		onChange: onChange,
		fw:       fw,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
	logger.Info("config hot-reload started", "path", w.path)
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.fw.Close()
	})
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerCh = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			w.reload()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", logger.KeyError, err)

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logger.Error("config reload failed, keeping previous configuration",
			"path", w.path,
			logger.KeyError, err,
		)
		return
	}

	logger.Info("configuration reloaded", "path", w.path)
	w.onChange(cfg)
}
