// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formtmpl

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/util"
)

// Loader reads template files from a directory and caches their text until
// the file changes on disk.
type Loader struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.RWMutex
	cache   map[string]string
	watched map[string]bool

	done chan struct{}
}

// NewLoader creates a loader for dir and starts watching it.
func NewLoader(dir string, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving template dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(abs); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", abs, err)
	}

	l := &Loader{
		dir:     abs,
		watcher: watcher,
		logger:  logger,
		cache:   make(map[string]string),
		watched: map[string]bool{abs: true},
		done:    make(chan struct{}),
	}
	go l.watch()
	return l, nil
}

// Load returns the template stored at name, relative to the loader's
// directory.
func (l *Loader) Load(name string) (string, error) {
	path, err := util.SafeJoinPath(l.dir, name)
	if err != nil {
		return "", err
	}

	l.mu.RLock()
	text, ok := l.cache[path]
	l.mu.RUnlock()
	if ok {
		return text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template %q: %w", name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[path] = string(data)
	if dir := filepath.Dir(path); !l.watched[dir] {
		if err := l.watcher.Add(dir); err != nil {
			l.logger.Warn("watching template dir", "dir", dir, "error", err)
		} else {
			l.watched[dir] = true
		}
	}
	return string(data), nil
}

// Close stops watching.
func (l *Loader) Close() error {
	err := l.watcher.Close()
	<-l.done
	return err
}

func (l *Loader) watch() {
	defer close(l.done)
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			l.invalidate(filepath.Clean(event.Name))
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("template watcher error", "error", err)
		}
	}
}

func (l *Loader) invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[path]; ok {
		delete(l.cache, path)
		l.logger.Debug("template changed", "path", path)
	}
}
