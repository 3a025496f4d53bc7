package app

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/substrate/internal/ctxlog"
)

// debounceWindow coalesces the bursts of write events editors produce for a
// single save.
const debounceWindow = 250 * time.Millisecond

// watch re-resolves whenever a file backing a file layer changes, until the
// context is cancelled. A failed re-resolution is reported and watching
// continues; the previous output stands.
func (a *App) watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	paths := a.watchPaths()
	if len(paths) == 0 {
		logger.Warn("Watch mode requested but no file layers are configured.")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			return err
		}
		logger.Debug("Watching layer file.", "path", path)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("Layer file changed.", "path", event.Name)
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			logger.Info("Re-resolving after file change.")
			if err := a.resolveOnce(ctx); err != nil {
				logger.Error("Re-resolution failed.", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error.", "error", err)
		}
	}
}
