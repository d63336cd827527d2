package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchStore calls reload, debounced, whenever the database file or its
// journal changes. It returns when ctx is done.
func watchStore(ctx context.Context, path string, debounce time.Duration, reload func(context.Context) error, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	log.Debug("watching store", "path", abs)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !storeChanged(event, abs) {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("store watch error", "error", err)
		case <-timer.C:
			pending = false
			if err := reload(ctx); err != nil {
				log.Warn("corpus reload failed", "error", err)
			}
		}
	}
}

func storeChanged(event fsnotify.Event, dbPath string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	switch filepath.Clean(event.Name) {
	case dbPath, dbPath + "-wal", dbPath + "-journal":
		return true
	}
	return false
}
