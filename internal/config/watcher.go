package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	appLog "panelseq/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes and hands every fresh,
// successfully parsed Config to the registered handlers.
type Watcher struct {
	path     string
	debounce time.Duration

	mu       sync.Mutex
	handlers []func(*Config)

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWatcher watches path. Changes within debounce of each other collapse
// into one reload; zero means 1.5s.
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 1500 * time.Millisecond
	}
	return &Watcher{path: path, debounce: debounce}
}

// OnReload registers a handler.
func (w *Watcher) OnReload(h func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Start begins watching. The parent directory is watched so editors that
// replace the file by rename are seen too.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	appLog.Info("config watcher started", "path", w.path, "debounce", w.debounce)
	go w.watch(ctx)
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.done)

	target := filepath.Clean(w.path)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			appLog.Debug("config file change detected", "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			appLog.Warn("config watcher error", "err", err)
		}
	}
}

func (w *Watcher) reload() {
	// Load would write a fresh default when the file is gone.
	if _, err := os.Stat(w.path); err != nil {
		appLog.Warn("config file unavailable, keeping previous settings", "path", w.path, "err", err)
		return
	}
	cfg, err := Load(w.path)
	if err != nil {
		appLog.Error("config reload failed, keeping previous settings", err, "path", w.path)
		return
	}
	appLog.Info("config reloaded", "path", w.path)

	w.mu.Lock()
	handlers := make([]func(*Config), len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()
	for _, h := range handlers {
		h(cfg)
	}
}
