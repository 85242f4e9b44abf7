package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go-file-organizer/internal/model"
	"go-file-organizer/internal/storage"
)

const (
	backupIndexFile  = "backup_history.json"
	backupLockFile   = ".lock"
	recordFilePrefix = "backup_"
	recordFileSuffix = ".json"
)

var recordNameReplacer = strings.NewReplacer(":", "-", "/", "_", `\`, "_")

// RecordFileName is the per-record file name derived from an operation id.
func RecordFileName(operationID string) string {
	return recordFilePrefix + recordNameReplacer.Replace(operationID) + recordFileSuffix
}

// BackupRepository persists operation records as an index document plus one
// file per record. Writers in this process are serialized by mu, writers in
// other processes by the lock file.
type BackupRepository struct {
	mu      sync.RWMutex
	dir     string
	lock    *storage.FileLock
	records map[string]model.OperationRecord
	logger  *slog.Logger
}

func NewBackupRepository(dir string, logger *slog.Logger) (*BackupRepository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("backup directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dirAbs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve backup directory: %w", err)
	}
	if err := os.MkdirAll(dirAbs, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	repo := &BackupRepository{
		dir:     dirAbs,
		lock:    storage.NewFileLock(filepath.Join(dirAbs, backupLockFile)),
		records: make(map[string]model.OperationRecord),
		logger:  logger,
	}

	if err := repo.Load(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *BackupRepository) Dir() string {
	return r.dir
}

// Load rebuilds the in-memory index from disk. Index entries whose record
// file is missing or unreadable are pruned; record files absent from the
// index are adopted. Per-file I/O problems are logged and skipped.
func (r *BackupRepository) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.unlock()

	index := r.readIndex()
	records := make(map[string]model.OperationRecord, len(index))
	changed := false

	for id := range index {
		record, err := r.readRecord(id)
		if err != nil {
			r.logger.Warn("pruning backup index entry", "operation_id", id, "error", err)
			changed = true
			continue
		}
		records[id] = record
	}

	orphans, err := filepath.Glob(filepath.Join(r.dir, recordFilePrefix+"*"+recordFileSuffix))
	if err != nil {
		r.logger.Warn("scan backup records failed", "dir", r.dir, "error", err)
	}
	for _, path := range orphans {
		if filepath.Base(path) == backupIndexFile {
			continue
		}
		record, readErr := decodeRecordFile(path)
		if readErr != nil {
			r.logger.Warn("ignoring unreadable backup record", "file", path, "error", readErr)
			continue
		}
		if _, known := records[record.OperationID]; known {
			continue
		}
		if RecordFileName(record.OperationID) != filepath.Base(path) {
			r.logger.Warn("ignoring backup record with mismatched name", "file", path, "operation_id", record.OperationID)
			continue
		}
		r.logger.Info("adopting backup record missing from index", "operation_id", record.OperationID)
		records[record.OperationID] = record
		changed = true
	}

	r.records = records
	if changed {
		if err := r.writeIndexLocked(); err != nil {
			r.logger.Error("rewrite backup index failed", "error", err)
		}
	}

	r.logger.Debug("backup store loaded", "dir", r.dir, "records", len(records))
	return nil
}

// PutNew stores record only if its id is unused, both in this process and on
// disk, and returns ErrOperationExists otherwise. The record file is written
// before the index, so a crash in between leaves an orphan that Load adopts.
func (r *BackupRepository) PutNew(record model.OperationRecord) error {
	if strings.TrimSpace(record.OperationID) == "" {
		return model.ErrInvalidOperationID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.unlock()

	if _, ok := r.records[record.OperationID]; ok {
		return fmt.Errorf("%s: %w", record.OperationID, model.ErrOperationExists)
	}
	if _, err := os.Lstat(r.recordPath(record.OperationID)); err == nil {
		return fmt.Errorf("%s: %w", record.OperationID, model.ErrOperationExists)
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal operation record: %w", err)
	}

	r.records[record.OperationID] = cloneRecord(record)

	if err := storage.AtomicWriteFile(r.recordPath(record.OperationID), payload, 0o644); err != nil {
		return fmt.Errorf("write backup record: %w", err)
	}
	if err := r.writeIndexLocked(); err != nil {
		return fmt.Errorf("write backup index: %w", err)
	}

	return nil
}

func (r *BackupRepository) Get(operationID string) (model.OperationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[operationID]
	if !ok {
		return model.OperationRecord{}, model.ErrOperationNotFound
	}

	return cloneRecord(record), nil
}

func (r *BackupRepository) Exists(operationID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[operationID]
	return ok
}

// Delete removes the record file before the index entry. Unknown ids are a no-op.
func (r *BackupRepository) Delete(operationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[operationID]; !ok {
		return nil
	}

	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.unlock()

	delete(r.records, operationID)

	if err := os.Remove(r.recordPath(operationID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove backup record: %w", err)
	}
	if err := r.writeIndexLocked(); err != nil {
		return fmt.Errorf("write backup index: %w", err)
	}

	return nil
}

// List returns every stored record, newest first.
func (r *BackupRepository) List() []model.OperationRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.OperationRecord, 0, len(r.records))
	for _, record := range r.records {
		items = append(items, cloneRecord(record))
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].OperationID > items[j].OperationID
		}
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	return items
}

func (r *BackupRepository) readIndex() map[string]model.OperationRecord {
	index := make(map[string]model.OperationRecord)

	raw, err := os.ReadFile(filepath.Join(r.dir, backupIndexFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("read backup index failed", "error", err)
		}
		return index
	}

	if err := json.Unmarshal(raw, &index); err != nil {
		r.logger.Warn("backup index is corrupt; rebuilding from record files", "error", err)
		return make(map[string]model.OperationRecord)
	}

	return index
}

func (r *BackupRepository) readRecord(operationID string) (model.OperationRecord, error) {
	record, err := decodeRecordFile(r.recordPath(operationID))
	if err != nil {
		return model.OperationRecord{}, err
	}
	if record.OperationID != operationID {
		return model.OperationRecord{}, fmt.Errorf("record file holds operation %q", record.OperationID)
	}
	return record, nil
}

func (r *BackupRepository) writeIndexLocked() error {
	payload, err := json.MarshalIndent(r.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup index: %w", err)
	}
	return storage.AtomicWriteFile(filepath.Join(r.dir, backupIndexFile), payload, 0o644)
}

func (r *BackupRepository) recordPath(operationID string) string {
	return filepath.Join(r.dir, RecordFileName(operationID))
}

func (r *BackupRepository) unlock() {
	if err := r.lock.Unlock(); err != nil {
		r.logger.Warn("release backup lock failed", "error", err)
	}
}

func decodeRecordFile(path string) (model.OperationRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.OperationRecord{}, err
	}

	var record model.OperationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return model.OperationRecord{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(record.OperationID) == "" {
		return model.OperationRecord{}, fmt.Errorf("decode %s: missing operation_id", filepath.Base(path))
	}

	return record, nil
}

func cloneRecord(record model.OperationRecord) model.OperationRecord {
	moved := make([]model.MovedItem, len(record.MovedItems))
	copy(moved, record.MovedItems)
	removed := make([]string, len(record.RemovedDirs))
	copy(removed, record.RemovedDirs)

	record.MovedItems = moved
	record.RemovedDirs = removed
	return record
}
