package loader

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher evicts cached file:// scenes when their source file changes.
// Directories are watched rather than files, so replacing a file with a
// rename (as editors do on save) keeps it watched.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	files map[string]string // cleaned path -> cache key

	// OnEvict is called with the cache key after an entry is evicted.
	OnEvict func(key string)
}

// Watch creates a Watcher for l. Run must be called to process events.
func (l *Loader) Watch() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{loader: l, watcher: w, files: map[string]string{}}, nil
}

// Add starts watching the file behind ref.
func (w *Watcher) Add(ref string) error {
	key, err := w.loader.Key(ref)
	if err != nil {
		return err
	}
	u, err := url.Parse(key)
	if err != nil {
		return err
	}
	path := filepath.Clean(filepath.FromSlash(u.Path))
	if err := w.watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	w.mu.Lock()
	w.files[path] = key
	w.mu.Unlock()
	return nil
}

func (w *Watcher) keyOf(name string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key, ok := w.files[filepath.Clean(name)]
	return key, ok
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.loader.logger
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key, ok := w.keyOf(e.Name)
			if !ok {
				continue
			}
			if w.loader.cache.Remove(key) {
				logger.Info("evicted changed document", zap.String("url", key), zap.Stringer("op", e.Op))
				if w.OnEvict != nil {
					w.OnEvict(key)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
