package service

import (
	"time"

	"go-file-organizer/internal/model"
)

// BackupStore is the persistence the flatten and undo services need.
type BackupStore interface {
	// PutNew fails with model.ErrOperationExists when the id is taken.
	PutNew(record model.OperationRecord) error
	Get(operationID string) (model.OperationRecord, error)
	Delete(operationID string) error
	Exists(operationID string) bool
	List() []model.OperationRecord
}

// Actors attached to operations that are not triggered over HTTP.
var (
	ActorCLI     = model.AuditActor{Username: "cli"}
	ActorWatcher = model.AuditActor{Username: "watcher"}
)

const operationIDLayout = "2006-01-02T15:04:05.000000Z07:00"

// newOperationID formats now as an ISO-8601 timestamp with microseconds,
// stepping forward one microsecond until the id is unused.
func newOperationID(now time.Time, taken func(string) bool) (string, time.Time) {
	at := now.UTC().Truncate(time.Microsecond)
	for {
		id := at.Format(operationIDLayout)
		if taken == nil || !taken(id) {
			return id, at
		}
		at = at.Add(time.Microsecond)
	}
}

func actorID(actor model.AuditActor) string {
	if actor.UserID != "" {
		return actor.UserID
	}
	return actor.Username
}
