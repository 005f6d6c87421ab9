package syncer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/benyxel/shopsync/internal/logfields"
	"github.com/benyxel/shopsync/internal/storage"
)

// watcher observes the shared state directory for entry writes made by
// other contexts. Watching the directory rather than the entry files is
// deliberate: entries are replaced by rename, which re-creates the file.
type watcher struct {
	syncer   *Syncer
	fs       *fsnotify.Watcher
	fileKeys map[string]string // entry file name -> entry key
	debounce time.Duration
}

func newWatcher(s *Syncer, dir string) (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, err
	}

	fileKeys := make(map[string]string, len(s.targets))
	for key := range s.targets {
		fileKeys[storage.FileName(key)] = key
	}

	debounce := s.debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	return &watcher{
		syncer:   s,
		fs:       fs,
		fileKeys: fileKeys,
		debounce: debounce,
	}, nil
}

func (w *watcher) close() {
	if err := w.fs.Close(); err != nil {
		slog.Warn("Closing storage watcher failed", logfields.Error(err))
	}
}

// run coalesces bursts of filesystem notifications per entry before
// reconciling, since a single logical write can surface as several events.
func (w *watcher) run(ctx context.Context) {
	defer w.syncer.wg.Done()

	pending := map[string]struct{}{}
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.syncer.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			key, known := w.fileKeys[filepath.Base(ev.Name)]
			if !known {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[key] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("Storage watcher error", logfields.Error(err))
		case <-timerC:
			keys := make([]string, 0, len(pending))
			for key := range pending {
				keys = append(keys, key)
			}
			clear(pending)
			timer = nil
			timerC = nil
			w.syncer.Reconcile(TriggerWatch, keys...)
		}
	}
}
