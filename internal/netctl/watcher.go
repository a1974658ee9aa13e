package netctl

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFlag watches the mode flag file for external edits (an operator
// poking the file by hand, or the admin CLI switching modes while the
// daemon runs) and fires the controller's OnChange callback. Blocks until
// ctx is cancelled.
func (c *Controller) WatchFlag(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: atomic rename replaces the inode.
	if err := watcher.Add(filepath.Dir(c.flag.path)); err != nil {
		return err
	}

	last := c.flag.Read()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != c.flag.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			mode := c.flag.Read()
			if mode == last {
				continue
			}
			last = mode
			slog.Info("netctl: mode flag changed on disk", "mode", mode)
			c.notify()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("netctl: flag watcher error", "err", err)
		}
	}
}
