package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// DetectSettingsChanges reports writes to the settings file. Parent directory is watched
// instead of the file itself, editors tend to replace files rather than write them in place.
func DetectSettingsChanges(ctx context.Context, path string) (<-chan bool, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher failed: %w", err)
	}

	dir := filepath.Dir(path)
	err = watcher.Add(dir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching \"%s\" failed: %w", dir, err)
	}

	var change = make(chan bool, 1)
	target := filepath.Clean(path)

	go func() {
		<-ctx.Done()
		err := watcher.Close()
		if err != nil {
			log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
		}
	}()

	go func() {
		defer close(change)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.Info("settings change detected", zap.String("path", event.Name), logger.Debug)
				select {
				case change <- true:
				default: // reload already pending
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Info(fmt.Sprintf("watcher error: %v", err), logger.Warning)
			}
		}
	}()

	return change, nil
}

// Reload reads settings from path and publishes them. On failure current settings are kept.
func Reload(store *Store, path string) error {
	s, err := ReadSettings(path)
	if err != nil {
		log.Info("settings reload failed, keeping previous", zap.Error(err), logger.Error)
		return err
	}
	changes := store.Set(s)
	for _, c := range changes {
		log.Info(fmt.Sprintf("setting changed: %s = %v", c.Field, c.Value), logger.Info)
	}
	return nil
}

// Watch keeps store in sync with settings file until ctx is cancelled
func Watch(ctx context.Context, store *Store, path string) error {
	change, err := DetectSettingsChanges(ctx, path)
	if err != nil {
		return err
	}
	for range change {
		_ = Reload(store, path)
	}
	return nil
}
