package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"go-file-organizer/internal/event"
	"go-file-organizer/internal/metrics"
	"go-file-organizer/internal/model"
	"go-file-organizer/internal/storage"
	"go-file-organizer/pkg/apierror"
)

const operationUndo = "undo"

// UndoService reverses a recorded flatten and then forgets the record,
// whether or not every item could be restored.
type UndoService struct {
	fs      storage.FileSystem
	backups BackupStore
	audit   *AuditService
	bus     event.Bus
	metrics *metrics.Metrics
}

func NewUndoService(fs storage.FileSystem, backups BackupStore, audit *AuditService, bus event.Bus, m *metrics.Metrics) *UndoService {
	return &UndoService{
		fs:      fs,
		backups: backups,
		audit:   audit,
		bus:     bus,
		metrics: m,
	}
}

func (s *UndoService) Undo(ctx context.Context, operationID string, actor model.AuditActor) (model.UndoResult, error) {
	started := time.Now()
	result, err := s.undo(ctx, operationID)

	s.metrics.ObserveOperation(operationUndo, started, err)
	s.metrics.FilesMoved(operationUndo, result.TotalRestored)
	s.metrics.ItemsSkipped(operationUndo, len(result.Skipped))
	s.audit.Log(ctx, operationUndo, actor, auditStatus(err, len(result.Skipped)), operationID, nil, result, errorText(err))

	if err != nil {
		return model.UndoResult{}, err
	}

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeUndoCompleted, result, actorID(actor)))
	}
	slog.Info("undo completed",
		"operation_id", operationID,
		"restored", result.TotalRestored,
		"skipped", len(result.Skipped),
	)

	return result, nil
}

// History lists recorded operations, newest first.
func (s *UndoService) History() []model.OperationSummary {
	records := s.backups.List()
	summaries := make([]model.OperationSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, record.Summary())
	}
	return summaries
}

// Record returns the full record for one operation.
func (s *UndoService) Record(operationID string) (model.OperationRecord, error) {
	record, err := s.backups.Get(operationID)
	if err != nil {
		if errors.Is(err, model.ErrOperationNotFound) {
			return model.OperationRecord{}, apierror.NotFound("Operation not found", operationID, model.ErrOperationNotFound)
		}
		return model.OperationRecord{}, err
	}
	return record, nil
}

func (s *UndoService) undo(ctx context.Context, operationID string) (model.UndoResult, error) {
	record, err := s.Record(operationID)
	if err != nil {
		return model.UndoResult{}, err
	}

	result := model.UndoResult{
		OperationID:   operationID,
		RestoredItems: make([]model.MovedItem, 0, len(record.MovedItems)),
	}

	for _, dir := range record.RemovedDirs {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("recreate directory failed", "path", dir, "error", err)
		}
	}

	for i := len(record.MovedItems) - 1; i >= 0; i-- {
		item := record.MovedItems[i]
		if err := ctx.Err(); err != nil {
			result.Skipped = append(result.Skipped, model.SkippedItem{Path: item.NewPath, Reason: "cancelled: " + err.Error()})
			break
		}
		if reason, ok := s.restore(item); !ok {
			result.Skipped = append(result.Skipped, model.SkippedItem{Path: item.NewPath, Reason: reason})
			continue
		}
		result.RestoredItems = append(result.RestoredItems, item)
	}
	result.TotalRestored = len(result.RestoredItems)

	if err := s.backups.Delete(operationID); err != nil {
		slog.Error("delete operation record failed", "operation_id", operationID, "error", err)
	}

	return result, nil
}

func (s *UndoService) restore(item model.MovedItem) (string, bool) {
	if _, err := s.fs.Lstat(item.NewPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "no longer exists", false
		}
		return err.Error(), false
	}

	if _, err := s.fs.Lstat(item.OriginalPath); err == nil {
		return "original path is occupied", false
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err.Error(), false
	}

	if err := s.fs.Move(item.NewPath, item.OriginalPath); err != nil {
		slog.Warn("restore failed", "from", item.NewPath, "to", item.OriginalPath, "error", err)
		return fmt.Sprintf("restore failed: %v", err), false
	}

	return "", true
}
