package registry

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultPollInterval = 30 * time.Second

// Watch reloads the registry on file events and on every poll tick until
// ctx is cancelled. The poll covers filesystems where fsnotify is
// unavailable or drops events.
func (r *Registry) Watch(ctx context.Context, interval time.Duration) {
	if r.path == "" {
		return
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}

	var events <-chan fsnotify.Event
	var errs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.logger.Warn("fsnotify unavailable, polling only", zap.Error(err))
	} else {
		defer watcher.Close()
		// Watch the directory: editors replace files by rename.
		if err := watcher.Add(filepath.Dir(r.path)); err != nil {
			r.logger.Warn("cannot watch registry directory, polling only", zap.Error(err))
		} else {
			events, errs = watcher.Events, watcher.Errors
		}
	}

	target := filepath.Clean(r.path)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reload("poll")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				r.reload("fsnotify")
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Warn("registry watcher error", zap.Error(err))
		}
	}
}

func (r *Registry) reload(trigger string) {
	changed, err := r.Reload()
	if err != nil {
		r.logger.Warn("model registry reload failed, keeping previous snapshot",
			zap.String("trigger", trigger), zap.Error(err))
		return
	}
	if !changed {
		return
	}
	r.logger.Debug("model registry reloaded", zap.String("trigger", trigger))
	if r.OnReload != nil {
		r.OnReload(r.Version())
	}
}
