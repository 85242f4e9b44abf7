package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"go-file-organizer/internal/event"
	"go-file-organizer/internal/metrics"
	"go-file-organizer/internal/model"
	"go-file-organizer/internal/pathalloc"
	"go-file-organizer/internal/storage"
	"go-file-organizer/pkg/apierror"
)

const operationFlatten = "flatten"

// FlattenService collapses a directory tree into its root and records an
// OperationRecord that UndoService can replay in reverse.
type FlattenService struct {
	fs      storage.FileSystem
	backups BackupStore
	audit   *AuditService
	bus     event.Bus
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewFlattenService(fs storage.FileSystem, backups BackupStore, audit *AuditService, bus event.Bus, m *metrics.Metrics) *FlattenService {
	return &FlattenService{
		fs:      fs,
		backups: backups,
		audit:   audit,
		bus:     bus,
		metrics: m,
		now:     time.Now,
	}
}

// flattenRun accumulates the outcome of one Flatten call.
type flattenRun struct {
	ctx     context.Context
	root    string
	alloc   *pathalloc.Allocator
	moved   []model.MovedItem
	removed []string
	skipped []model.SkippedItem
	stopped bool
}

func (r *flattenRun) skip(path string, reason string) {
	r.skipped = append(r.skipped, model.SkippedItem{Path: path, Reason: reason})
}

// cancelled reports a context cancellation once and then stops the walk.
// Items already moved stay recorded so the operation remains undoable.
func (r *flattenRun) cancelled(at string) bool {
	if r.stopped {
		return true
	}
	if err := r.ctx.Err(); err != nil {
		r.stopped = true
		r.skip(at, "cancelled: "+err.Error())
		return true
	}
	return false
}

func (s *FlattenService) Flatten(ctx context.Context, sourceDir string, actor model.AuditActor) (model.FlattenResult, error) {
	started := time.Now()
	result, err := s.flatten(ctx, sourceDir)

	s.metrics.ObserveOperation(operationFlatten, started, err)
	s.metrics.FilesMoved(operationFlatten, result.TotalFiles)
	s.metrics.ItemsSkipped(operationFlatten, len(result.Skipped))
	s.audit.Log(ctx, operationFlatten, actor, auditStatus(err, len(result.Skipped)), sourceDir, nil, result, errorText(err))

	if err != nil {
		slog.Warn("flatten failed", "source_dir", sourceDir, "error", err)
		return model.FlattenResult{}, err
	}

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeFlattenCompleted, result, actorID(actor)))
	}
	slog.Info("flatten completed",
		"operation_id", result.OperationID,
		"source_dir", sourceDir,
		"moved", result.TotalFiles,
		"directories_removed", result.DirectoriesRemoved,
		"skipped", len(result.Skipped),
	)

	return result, nil
}

func (s *FlattenService) flatten(ctx context.Context, sourceDir string) (model.FlattenResult, error) {
	root, err := s.fs.Resolve(sourceDir)
	if err != nil {
		return model.FlattenResult{}, err
	}

	info, err := s.fs.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.FlattenResult{}, apierror.NotFound("Source directory not found", sourceDir, model.ErrSourceNotFound)
		}
		return model.FlattenResult{}, fmt.Errorf("stat source directory: %w", err)
	}
	if !info.IsDir() {
		return model.FlattenResult{}, apierror.Wrap(model.ErrNotDirectory, "BAD_REQUEST", "Source path is not a directory", sourceDir, http.StatusBadRequest)
	}

	entries, err := s.fs.ReadDir(root)
	if err != nil {
		return model.FlattenResult{}, fmt.Errorf("read source directory: %w", err)
	}

	run := &flattenRun{
		ctx:     ctx,
		root:    root,
		alloc:   pathalloc.New(pathalloc.WithStyle(pathalloc.SuffixParenthesized), pathalloc.WithProber(s.fs)),
		moved:   make([]model.MovedItem, 0),
		removed: make([]string, 0),
	}
	for _, entry := range entries {
		run.alloc.Reserve(root, entry.Name())
	}

	// files already in the root are flat; only subdirectories are walked
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child := filepath.Join(root, entry.Name())
		if run.cancelled(child) {
			break
		}
		s.walk(run, child)
		run.removed = append(run.removed, child)
	}

	removedCount := 0
	for _, dir := range run.removed {
		removed, removeErr := s.fs.RemoveIfEmpty(dir)
		if removeErr != nil {
			slog.Debug("leaving directory in place", "path", dir, "error", removeErr)
			continue
		}
		if removed {
			removedCount++
		}
	}

	operationID := s.record(root, run)

	return model.FlattenResult{
		OperationID:        operationID,
		MovedItems:         run.moved,
		TotalFiles:         len(run.moved),
		DirectoriesRemoved: removedCount,
		Skipped:            run.skipped,
	}, nil
}

// record stores the run under a fresh operation id. The store rejects an id
// another flatten claimed in the meantime; the next microsecond is tried then.
func (s *FlattenService) record(root string, run *flattenRun) string {
	at := s.now()
	for {
		operationID, stamped := newOperationID(at, s.backups.Exists)
		err := s.backups.PutNew(model.OperationRecord{
			OperationID: operationID,
			Timestamp:   stamped,
			SourceDir:   root,
			MovedItems:  run.moved,
			RemovedDirs: run.removed,
		})
		if errors.Is(err, model.ErrOperationExists) {
			at = stamped.Add(time.Microsecond)
			continue
		}
		if err != nil {
			slog.Error("persist operation record failed", "operation_id", operationID, "error", err)
		}
		return operationID
	}
}

// walk visits dir post-order: subdirectories first, each appended to the
// removal list after its own contents, then the files of dir itself.
func (s *FlattenService) walk(run *flattenRun, dir string) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		slog.Warn("skipping unreadable directory", "path", dir, "error", err)
		run.skip(dir, err.Error())
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child := filepath.Join(dir, entry.Name())
		if run.cancelled(child) {
			return
		}
		s.walk(run, child)
		run.removed = append(run.removed, child)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		source := filepath.Join(dir, entry.Name())
		if run.cancelled(source) {
			return
		}
		s.moveUp(run, dir, entry.Name())
	}
}

func (s *FlattenService) moveUp(run *flattenRun, dir string, name string) {
	source := filepath.Join(dir, name)

	destination, err := run.alloc.Allocate(run.root, name)
	if err != nil {
		slog.Warn("no destination for file", "path", source, "error", err)
		run.skip(source, err.Error())
		return
	}

	if err := s.fs.Move(source, destination); err != nil {
		run.alloc.Release(destination)
		slog.Warn("move failed; skipping", "path", source, "error", err)
		run.skip(source, err.Error())
		return
	}

	run.moved = append(run.moved, model.MovedItem{
		Name:         name,
		OriginalPath: source,
		NewPath:      destination,
		OriginalDir:  dir,
	})
}
