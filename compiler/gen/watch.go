package gen

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the event bursts editors emit on save.
const debounceDelay = 250 * time.Millisecond

// Watch re-runs run whenever the definition file at path changes. Generation
// failures are logged and watching continues, so an intermediate save with a
// syntax error does not stop the loop. Watch blocks until ctx is canceled or
// the watcher fails.
func Watch(ctx context.Context, path string, run func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Watch the parent directory. Editors that write through a temporary
	// file and rename replace the inode, which a direct file watch loses.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	base := filepath.Base(path)
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				pending = timer.C
			} else {
				timer.Reset(debounceDelay)
			}
		case <-pending:
			timer, pending = nil, nil
			slog.Info("definitions changed, regenerating", "path", path)
			if err := run(); err != nil {
				slog.Error("generation failed", "path", path, "err", err)
			}
		}
	}
}
