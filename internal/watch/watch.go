// Package watch publishes a message whenever one of a set of files changes.
// It backs the plugin context's AddWatchFile.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/livebud/devbridge/internal/pubsub"
)

// New watcher publishing the changed path to topic
func New(log *slog.Logger, ps pubsub.Publisher, topic string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: unable to create watcher: %w", err)
	}
	return &Watcher{
		Debounce: 100 * time.Millisecond,
		fsw:      fsw,
		log:      log,
		ps:       ps,
		topic:    topic,
		files:    map[string]struct{}{},
		dirs:     map[string]struct{}{},
		debounce: map[string]func(func()){},
	}, nil
}

type Watcher struct {
	// Debounce coalesces bursts of events for the same file
	Debounce time.Duration

	fsw   *fsnotify.Watcher
	log   *slog.Logger
	ps    pubsub.Publisher
	topic string

	mu       sync.Mutex
	files    map[string]struct{}
	dirs     map[string]struct{}
	debounce map[string]func(func())
	closed   bool
}

// Add a file to watch. The parent directory is watched so editors that
// replace files on save are still noticed.
func (w *Watcher) Add(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		return nil
	}
	if _, ok := w.dirs[dir]; !ok {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: unable to watch %q: %w", dir, err)
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[path] = struct{}{}
	w.log.Debug("watch: watching file", "path", path)
	return nil
}

// Watching reports whether path was added
func (w *Watcher) Watching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(path)]
	return ok
}

// Run the event loop until ctx is canceled
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch: watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	path := filepath.Clean(event.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; !ok {
		return
	}
	debounced, ok := w.debounce[path]
	if !ok {
		debounced = debounce.New(w.Debounce)
		w.debounce[path] = debounced
	}
	debounced(func() {
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		w.log.Info("watch: file changed", "path", path, "op", event.Op.String())
		w.ps.Publish(w.topic, []byte(path))
	})
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return w.fsw.Close()
}
