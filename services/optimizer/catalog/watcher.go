// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler receives the freshly loaded catalog after a file change.
type ReloadHandler func(*Catalog)

// Watcher reloads a catalog file when it changes on disk.
//
// Changes are debounced so a burst of writes (editor save, atomic
// rename) triggers a single reload. Reloads happen between search runs;
// the watcher never touches a catalog a running search holds.
//
// Thread Safety: Safe for concurrent use.
type Watcher struct {
	path     string
	debounce time.Duration
	handler  ReloadHandler
	logger   *slog.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewWatcher creates a watcher for the given catalog file.
//
// Inputs:
//   - path: Catalog file to watch.
//   - debounce: Quiet period before a reload fires. Zero selects 250ms.
//   - logger: Destination for reload logs. Nil uses slog.Default().
//   - handler: Called with the reloaded catalog. Required.
//
// Outputs:
//   - *Watcher: Watcher ready to Start.
//   - error: Non-nil if the handler is missing or the underlying
//     watcher cannot be created.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger, handler ReloadHandler) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watcher requires a reload handler")
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		handler:  handler,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Watching the parent directory rather than the
// file itself survives atomic-rename saves.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	dir := filepath.Dir(w.path)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.started = true

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return w.fsw.Close()
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cat := Load(w.path, w.logger)
			w.logger.Info("catalog reloaded",
				slog.String("path", w.path),
				slog.Int("strategies", cat.Len()))
			w.handler(cat)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", slog.String("error", err.Error()))
		}
	}
}
