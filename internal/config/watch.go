package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 250 * time.Millisecond

// Watch reloads the configuration file whenever it changes until ctx is
// done. The parent directory is watched so that atomic renames (write to a
// temp file, then move over the original) are seen. A reload that fails
// validation is logged and the previous configuration stays active.
func (m *Manager) Watch(ctx context.Context) error {
	path := m.Path()
	if path == "" {
		return errors.New("no config file to watch")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	m.log().Info("watching configuration", "path", abs)

	debounced := debounce.New(reloadDebounce)
	reload := func() {
		if err := m.Load(path); err != nil {
			m.log().Error("configuration reload failed", "path", path, "error", err)
			return
		}
		m.log().Info("configuration reloaded", "path", path)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				m.log().Debug("configuration file changed", "op", event.Op.String())
				debounced(reload)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log().Error("file watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}
