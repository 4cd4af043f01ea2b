/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "sidebarlayout/internal/log"
)

// WatchDebounce is how long Watch waits for a burst of file events to settle.
var WatchDebounce = 150 * time.Millisecond

// Watch reloads the config at path whenever it changes and calls fn with the
// result. It watches the parent directory so editors that replace the file
// are picked up. Watch returns once the watcher is installed; the loop runs
// until ctx is cancelled. Files that fail to parse are logged and skipped.
func Watch(ctx context.Context, path string, fn func(AppConfig)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch config %s: %w", filepath.Dir(abs), err)
	}
	go watchLoop(ctx, w, abs, fn)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, fn func(AppConfig)) {
	l := applog.WithOperation(applog.WithComponent("config"), "watch")
	defer func() { _ = w.Close() }()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		cfg, err := LoadFrom(path)
		if err != nil {
			l.Warn("config reload skipped", "path", path, "err", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			l.Warn("config reload rejected", "path", path, "err", err)
			return
		}
		l.Info("config reloaded", "path", path)
		fn(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(WatchDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				reload()
			})
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.Warn("config watcher error", "err", err)
		}
	}
}
