// Package watcher turns fsnotify creation notifications for a directory tree
// into Created events.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"go-file-organizer/internal/storage"
)

type Kind string

const Created Kind = "created"

type Event struct {
	Kind  Kind
	Path  string
	IsDir bool
}

type Option func(*Watcher)

// WithExclude drops events at or below any of dirs and never watches them.
func WithExclude(dirs ...string) Option {
	return func(w *Watcher) {
		for _, dir := range dirs {
			if dir != "" {
				w.exclude = append(w.exclude, filepath.Clean(dir))
			}
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher watches root and every directory that appears below it.
type Watcher struct {
	root    string
	fs      *fsnotify.Watcher
	events  chan Event
	done    chan struct{}
	exclude []string
	buffer  int
	logger  *slog.Logger
	wg      sync.WaitGroup
	once    sync.Once
}

func New(root string, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:   filepath.Clean(root),
		fs:     fsWatcher,
		done:   make(chan struct{}),
		buffer: 256,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.events = make(chan Event, w.buffer)

	if err := w.addRecursive(w.root); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("watcher started", "root", w.root)
	return w, nil
}

// Events is closed after Close returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
		close(w.events)
		w.logger.Info("watcher stopped", "root", w.root)
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case raw, ok := <-w.fs.Events:
			if !ok {
				return
			}
			ev, keep := w.convert(raw)
			if !keep {
				continue
			}
			if ev.IsDir {
				if err := w.addRecursive(ev.Path); err != nil {
					w.logger.Warn("watch new directory failed", "path", ev.Path, "error", err)
				}
			}
			select {
			case w.events <- ev:
			case <-w.done:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "root", w.root, "error", err)
		}
	}
}

func (w *Watcher) convert(raw fsnotify.Event) (Event, bool) {
	if !raw.Has(fsnotify.Create) {
		return Event{}, false
	}

	path := filepath.Clean(raw.Name)
	if w.excluded(path) {
		return Event{}, false
	}

	info, err := os.Lstat(path)
	if err != nil {
		// gone before we looked; nothing left to organize
		return Event{}, false
	}

	return Event{Kind: Created, Path: path, IsDir: info.IsDir()}, true
}

func (w *Watcher) excluded(path string) bool {
	for _, dir := range w.exclude {
		if storage.IsWithin(dir, path) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("skip unreadable directory", "path", path, "error", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			if !errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn("watch subdirectory failed", "path", path, "error", err)
			}
		}
		return nil
	})
}
