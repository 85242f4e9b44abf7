package service

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go-file-organizer/internal/event"
	"go-file-organizer/internal/metrics"
	"go-file-organizer/internal/model"
	"go-file-organizer/internal/storage"
	"go-file-organizer/internal/watcher"
	"go-file-organizer/pkg/apierror"
)

// WatchService files everything that appears in a watched directory into an
// organization directory. At most one directory is watched at a time and
// events are handled one after another.
type WatchService struct {
	fs       storage.FileSystem
	flatten  *FlattenService
	organize *OrganizeService
	bus      event.Bus
	metrics  *metrics.Metrics
	settle   time.Duration

	mu      sync.Mutex
	session *watchSession
}

type watchSession struct {
	watcher   *watcher.Watcher
	watchDir  string
	orgDir    string
	startedAt time.Time
	processed atomic.Int64
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWatchService waits settle before handling each event so writers can
// finish the file that triggered it.
func NewWatchService(fs storage.FileSystem, flatten *FlattenService, organize *OrganizeService, bus event.Bus, m *metrics.Metrics, settle time.Duration) *WatchService {
	return &WatchService{
		fs:       fs,
		flatten:  flatten,
		organize: organize,
		bus:      bus,
		metrics:  m,
		settle:   settle,
	}
}

// Setup replaces any running watch with one on watchDir, first filing what
// watchDir already contains.
func (s *WatchService) Setup(ctx context.Context, watchDir string, orgDir string) (model.WatchStatus, error) {
	if watchDir == "" || orgDir == "" {
		return model.WatchStatus{}, apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST", "watch_directory and organization_directory are required", "", http.StatusBadRequest)
	}

	watchResolved, err := s.fs.Resolve(watchDir)
	if err != nil {
		return model.WatchStatus{}, err
	}
	orgResolved, err := s.fs.Resolve(orgDir)
	if err != nil {
		return model.WatchStatus{}, err
	}
	if storage.IsWithin(orgResolved, watchResolved) {
		return model.WatchStatus{}, apierror.Wrap(model.ErrPathConflict, "BAD_REQUEST", "watch_directory must not be inside organization_directory", watchDir, http.StatusBadRequest)
	}

	for _, dir := range []string{watchResolved, orgResolved} {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return model.WatchStatus{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	w, err := watcher.New(watchResolved, watcher.WithExclude(orgResolved))
	if err != nil {
		return model.WatchStatus{}, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	session := &watchSession{
		watcher:   w,
		watchDir:  watchResolved,
		orgDir:    orgResolved,
		startedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	s.processExisting(runCtx, session)

	s.session = session
	go s.run(runCtx, session)

	status := session.status()
	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeWatchStarted, status, ActorWatcher.Username))
	}
	slog.Info("watch started", "watch_dir", watchResolved, "organization_dir", orgResolved, "files_processed", status.FilesProcessed)

	return status, nil
}

// Stop ends the running watch.
func (s *WatchService) Stop() (model.WatchStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return model.WatchStatus{}, apierror.Wrap(model.ErrWatchNotRunning, "WATCH_NOT_RUNNING", "No directory is being watched", "", http.StatusConflict)
	}

	status := s.session.status()
	status.Running = false
	s.stopLocked()
	return status, nil
}

func (s *WatchService) Status() model.WatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return model.WatchStatus{}
	}
	return s.session.status()
}

// Close stops the watch if one is running.
func (s *WatchService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *WatchService) stopLocked() {
	session := s.session
	if session == nil {
		return
	}
	s.session = nil

	session.cancel()
	if err := session.watcher.Close(); err != nil {
		slog.Warn("close watcher failed", "watch_dir", session.watchDir, "error", err)
	}
	<-session.done

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeWatchStopped, session.status(), ActorWatcher.Username))
	}
	slog.Info("watch stopped", "watch_dir", session.watchDir, "files_processed", session.processed.Load())
}

func (s *WatchService) run(ctx context.Context, session *watchSession) {
	defer close(session.done)

	for ev := range session.watcher.Events() {
		if ctx.Err() != nil {
			continue
		}
		s.metrics.WatchEvent(string(ev.Kind))
		s.handle(ctx, session, ev)
	}

	if ctx.Err() == nil {
		slog.Error("watch ended unexpectedly", "watch_dir", session.watchDir)
		if s.bus != nil {
			s.bus.Publish(event.New(event.TypeWatchFailed, session.status(), ActorWatcher.Username))
		}
	}
}

func (s *WatchService) processExisting(ctx context.Context, session *watchSession) {
	entries, err := s.fs.ReadDir(session.watchDir)
	if err != nil {
		slog.Warn("read watch directory failed", "watch_dir", session.watchDir, "error", err)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(session.watchDir, entry.Name())
		if storage.IsWithin(session.orgDir, path) {
			continue
		}
		s.handlePath(ctx, session, path, entry.IsDir())
	}
}

func (s *WatchService) handle(ctx context.Context, session *watchSession, ev watcher.Event) {
	if s.settle > 0 {
		timer := time.NewTimer(s.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	info, err := s.fs.Lstat(ev.Path)
	if err != nil {
		slog.Debug("watched path is gone", "path", ev.Path)
		return
	}
	s.handlePath(ctx, session, ev.Path, info.IsDir())
}

// handlePath flattens a new directory and files its contents, or files a
// single new file.
func (s *WatchService) handlePath(ctx context.Context, session *watchSession, path string, isDir bool) {
	files := []string{path}

	if isDir {
		result, err := s.flatten.Flatten(ctx, path, ActorWatcher)
		if err != nil {
			slog.Warn("flatten of new directory failed", "path", path, "error", err)
			return
		}
		files = files[:0]
		for _, item := range result.MovedItems {
			if info, err := s.fs.Lstat(item.NewPath); err == nil && !info.IsDir() {
				files = append(files, item.NewPath)
			}
		}
		// files that were already at the top of the new directory
		entries, err := s.fs.ReadDir(path)
		if err == nil {
			for _, entry := range entries {
				candidate := filepath.Join(path, entry.Name())
				if !entry.IsDir() && !slices.Contains(files, candidate) {
					files = append(files, candidate)
				}
			}
		}
	}

	if len(files) == 0 {
		return
	}

	result := s.organize.Organize(ctx, files, session.orgDir, ActorWatcher)
	session.processed.Add(int64(len(result.Organized)))
	for _, msg := range result.Errors {
		slog.Warn("watch organize error", "path", path, "error", msg)
	}
}

func (ws *watchSession) status() model.WatchStatus {
	return model.WatchStatus{
		Running:               true,
		WatchDirectory:        ws.watchDir,
		OrganizationDirectory: ws.orgDir,
		FilesProcessed:        int(ws.processed.Load()),
		StartedAt:             ws.startedAt,
	}
}
