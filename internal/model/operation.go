package model

import "time"

// OperationRecord is the durable description of one flatten, sufficient to reverse it.
type OperationRecord struct {
	OperationID string      `json:"operation_id"`
	Timestamp   time.Time   `json:"timestamp"`
	SourceDir   string      `json:"source_dir"`
	MovedItems  []MovedItem `json:"moved_items"`
	RemovedDirs []string    `json:"removed_dirs"`
}

// MovedItem records a single relocation. Items are stored in move order.
type MovedItem struct {
	Name         string `json:"name"`
	OriginalPath string `json:"original_path"`
	NewPath      string `json:"new_path"`
	OriginalDir  string `json:"original_dir"`
}

type SkippedItem struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type FlattenResult struct {
	OperationID        string        `json:"operation_id"`
	MovedItems         []MovedItem   `json:"moved_items"`
	TotalFiles         int           `json:"total_files"`
	DirectoriesRemoved int           `json:"directories_removed"`
	Skipped            []SkippedItem `json:"skipped,omitempty"`
}

type UndoResult struct {
	OperationID   string        `json:"operation_id"`
	RestoredItems []MovedItem   `json:"restored_items"`
	TotalRestored int           `json:"total_restored"`
	Skipped       []SkippedItem `json:"skipped,omitempty"`
}

// OperationSummary is the listing view of a stored record.
type OperationSummary struct {
	OperationID string    `json:"operation_id"`
	Timestamp   time.Time `json:"timestamp"`
	SourceDir   string    `json:"source_dir"`
	MovedCount  int       `json:"moved_count"`
	RemovedDirs int       `json:"removed_dirs"`
}

func (r OperationRecord) Summary() OperationSummary {
	return OperationSummary{
		OperationID: r.OperationID,
		Timestamp:   r.Timestamp,
		SourceDir:   r.SourceDir,
		MovedCount:  len(r.MovedItems),
		RemovedDirs: len(r.RemovedDirs),
	}
}
