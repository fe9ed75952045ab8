package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last change
// event before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a rules file into a Store whenever it changes on disk.
// Bursts of events are coalesced into one reload once the file has been
// quiet for the debounce interval, so a save in progress is not read.
// A reload that fails validation is logged and the previous snapshot stays
// active.
type Watcher struct {
	path     string
	store    *Store
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// OnReload, if set, is called after every reload attempt with its outcome.
	OnReload func(kb *KnowledgeBase, err error)
}

// NewWatcher creates a watcher for path. The parent directory is watched
// rather than the file itself so that editors replacing the file are seen.
func NewWatcher(path string, store *Store, logger *zap.Logger) (*Watcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rules path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		store:    store,
		logger:   logger.Named("rules-watcher"),
		watcher:  fw,
		debounce: DefaultDebounce,
	}, nil
}

// Run processes file events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pending:
			pending = nil
			_ = w.Reload()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
			pending = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// Reload loads the file now and swaps it in when valid.
func (w *Watcher) Reload() error {
	kb, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("rules reload rejected, keeping previous snapshot",
			zap.String("path", w.path), zap.Error(err))
	} else {
		prev := w.store.Swap(kb)
		prevVersion := ""
		if prev != nil {
			prevVersion = prev.Version()
		}
		w.logger.Info("rules reloaded",
			zap.String("path", w.path),
			zap.String("version", kb.Version()),
			zap.String("previous_version", prevVersion),
			zap.Int("rules", kb.Len()),
		)
	}
	if w.OnReload != nil {
		w.OnReload(kb, err)
	}
	return err
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
