package inputsvc

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher signals whenever a node is created in or removed from the input directory.
// Signals carry no detail; pending signals coalesce until received.
type Watcher struct {
	log     *zap.Logger
	dir     string
	watcher *fsnotify.Watcher
	signals chan struct{}
}

// NewWatcher establishes the watch. Failure here is fatal for the caller.
func NewWatcher(log *zap.Logger, dir string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	err = watcher.Add(dir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		log:     log,
		dir:     dir,
		watcher: watcher,
		signals: make(chan struct{}, 1),
	}, nil
}

func (w *Watcher) Signals() <-chan struct{} {
	return w.signals
}

// Start forwards watch events until ctx is done, then releases the watch.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()
	w.log.Info("Watching for input hotplug", zap.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			w.log.Debug("input directory changed", zap.String("event", event.String()))
			select {
			case w.signals <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("Watcher error", zap.Error(err))
		}
	}
}
