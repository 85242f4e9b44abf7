package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeFlattenCompleted Type = "flatten.completed"
	TypeUndoCompleted    Type = "undo.completed"
	TypeFileOrganized    Type = "file.organized"
	TypeWatchStarted     Type = "watch.started"
	TypeWatchStopped     Type = "watch.stopped"
	TypeWatchFailed      Type = "watch.failed"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

// New stamps an event with a fresh id and the current UTC time.
func New(eventType Type, payload any, actorID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
