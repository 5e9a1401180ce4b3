// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/SyDuc7421/chatbot-gui/internal/logger"
)

// watchedFiles are the names in the config directory that trigger a reload.
var watchedFiles = map[string]bool{
	"config.toml": true,
	"config.json": true,
	"config.yaml": true,
	".env":        true,
}

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// Watcher reloads the global configuration when a config file in the
// config directory changes. Bursts of events are coalesced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	reload   func() error
	onChange func(*Config)
	log      *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewWatcher creates a watcher for dir. An empty dir means ConfigDir().
// onChange, if non-nil, receives the new global config after each
// successful reload.
func NewWatcher(dir string, debounce time.Duration, onChange func(*Config)) (*Watcher, error) {
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:  fw,
		dir:      dir,
		debounce: debounce,
		reload:   ReloadGlobal,
		onChange: onChange,
		log:      logger.Named("config"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts watching for file changes.
func (w *Watcher) Watch() error {
	// Editors often replace files by rename, so watch the directory.
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	go w.processEvents()
	return nil
}

func (w *Watcher) processEvents() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !watchedFiles[filepath.Base(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	if w.ctx.Err() != nil {
		return
	}
	if err := w.reload(); err != nil {
		w.log.Warn("config reload failed, keeping previous config", zap.Error(err))
		return
	}
	w.log.Info("config reloaded", zap.String("dir", w.dir))
	if w.onChange != nil {
		w.onChange(Global())
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	started := w.started
	w.mu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}
	return err
}
