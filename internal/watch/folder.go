// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     watch
// Description: Hot folder that feeds new scans into the pipeline
// Author:      Mike Stoffels
// Created:     2026-10-12
// License:     MIT
// ============================================================================

package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/msto63/vaani/pkg/core/logging"
)

// DefaultSettle is how long a file must stay unchanged before it is processed
const DefaultSettle = 500 * time.Millisecond

var supported = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
	".pdf": true,
}

// Supported reports whether path has an image or PDF extension
func Supported(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	return supported[strings.ToLower(filepath.Ext(base))]
}

// Handler processes one settled file
type Handler func(ctx context.Context, path string) error

// Folder watches a directory for new scans
type Folder struct {
	dir    string
	settle time.Duration
	logger *logging.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewFolder creates a watcher for dir
func NewFolder(dir string, settle time.Duration) *Folder {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Folder{
		dir:     dir,
		settle:  settle,
		logger:  logging.New("watch").With("dir", dir),
		pending: make(map[string]time.Time),
	}
}

// Run watches until ctx ends. Files are handled one at a time, oldest
// first, once no write has touched them for the settle period. Handler
// errors are logged and do not stop the watch.
func (f *Folder) Run(ctx context.Context, handle Handler) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("failed to open watch folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", f.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", f.dir, err)
	}
	f.logger.Info("Watching folder", "dir", f.dir, "settle", f.settle)

	ticker := time.NewTicker(f.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			f.handleEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("Watcher error", "error", err)

		case now := <-ticker.C:
			for _, path := range f.settled(now) {
				if ctx.Err() != nil {
					return nil
				}
				f.logger.Info("Processing file", "file", filepath.Base(path))
				if err := handle(ctx, path); err != nil {
					f.logger.Warn("Failed to process file", "file", filepath.Base(path), "error", err)
				}
			}
		}
	}
}

func (f *Folder) handleEvent(event fsnotify.Event) {
	if !Supported(event.Name) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(f.pending, event.Name)
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		f.pending[event.Name] = time.Now()
	}
}

// settled removes and returns the paths quiet for at least the settle period
func (f *Folder) settled(now time.Time) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ready []string
	for path, last := range f.pending {
		if now.Sub(last) >= f.settle {
			ready = append(ready, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return f.pending[ready[i]].Before(f.pending[ready[j]])
	})
	for _, path := range ready {
		delete(f.pending, path)
	}
	return ready
}
