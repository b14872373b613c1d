package dict

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher triggers a store reload whenever the dictionary file changes on
// disk, so new compound terms are picked up without a restart. Rapid
// successive writes (editors, atomic-rename deploys) are debounced.
type Watcher struct {
	store *Store
	fw    *fsnotify.Watcher
	path  string
	done  chan struct{}
	log   *slog.Logger
}

const reloadDebounce = 200 * time.Millisecond

// NewWatcher watches the directory containing path; watching the directory
// instead of the file survives rename-based replacement of the file.
func NewWatcher(store *Store, path string, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store: store,
		fw:    fw,
		path:  abs,
		done:  make(chan struct{}),
		log:   logger,
	}, nil
}

// Start runs the watch loop until Close is called.
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, w.reload)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("dictionary watcher error", "err", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	if err := w.store.Reload(); err != nil {
		// Keep serving the previous snapshot; a broken half-written file
		// must not take the dictionary down.
		w.log.Error("dictionary reload failed, keeping previous snapshot", "path", w.path, "err", err)
		return
	}
	w.log.Info("dictionary reloaded", "path", w.path, "terms", w.store.Current().Size())
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
