// Package tasks defines the asynq task types and payloads exchanged between
// the server process and the background worker.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/nwesha/Zcoder/internal/domain"
)

// Task types.
const (
	// TypeDocumentPersist flushes a room's shared document to the durable
	// store. Enqueued fire-and-forget after every accepted document update;
	// asynq retries on failure.
	TypeDocumentPersist = "document:persist"

	// TypeActivityRecord appends one entry to a user's activity log.
	TypeActivityRecord = "activity:record"
)

// DocumentPersistPayload carries a point-in-time copy of the shared document.
// Writes land last-version-wins, so a stale retry never clobbers a newer
// flush.
type DocumentPersistPayload struct {
	RoomID   uint                  `json:"room_id"`
	Document domain.SharedDocument `json:"document"`
}

// ActivityRecordPayload carries one activity-log entry.
type ActivityRecordPayload struct {
	UserID       uint                `json:"user_id"`
	Type         domain.ActivityType `json:"type"`
	Message      string              `json:"message"`
	ResourceType string              `json:"resource_type,omitempty"`
	ResourceID   uint                `json:"resource_id,omitempty"`
}

// NewDocumentPersistTask builds the asynq task for a document flush.
func NewDocumentPersistTask(roomID uint, doc domain.SharedDocument) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentPersistPayload{RoomID: roomID, Document: doc})
	if err != nil {
		return nil, fmt.Errorf("marshal document persist payload: %w", err)
	}
	return asynq.NewTask(TypeDocumentPersist, payload, asynq.Queue("critical"), asynq.MaxRetry(5)), nil
}

// NewActivityRecordTask builds the asynq task for an activity-log append.
func NewActivityRecordTask(p ActivityRecordPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal activity record payload: %w", err)
	}
	return asynq.NewTask(TypeActivityRecord, payload, asynq.Queue("low")), nil
}
