// Package worker runs the asynq background consumer: durable document
// flushes and activity-log appends.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
	"github.com/nwesha/Zcoder/internal/tasks"
)

type Handlers struct {
	rooms      repository.RoomRepository
	activities repository.ActivityRepository
}

func NewHandlers(rooms repository.RoomRepository, activities repository.ActivityRepository) *Handlers {
	if rooms == nil || activities == nil {
		panic("worker: NewHandlers requires non-nil repositories")
	}
	return &Handlers{rooms: rooms, activities: activities}
}

// HandleDocumentPersist writes a point-in-time document copy to the room
// record. The repository write is guarded by the document version, so a
// retried task carrying an older version than what is already durable, or a
// task for a room deleted in flight, is dropped, not an error.
func (h *Handlers) HandleDocumentPersist(ctx context.Context, t *asynq.Task) error {
	var p tasks.DocumentPersistPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal document persist payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.rooms.UpdateDocument(ctx, p.RoomID, p.Document); err != nil {
		return fmt.Errorf("persist document for room %d: %w", p.RoomID, err)
	}
	logrus.WithFields(logrus.Fields{"room_id": p.RoomID, "version": p.Document.Version}).
		Debug("Document persisted")
	return nil
}

// HandleActivityRecord appends one activity-log entry.
func (h *Handlers) HandleActivityRecord(ctx context.Context, t *asynq.Task) error {
	var p tasks.ActivityRecordPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal activity record payload: %v: %w", err, asynq.SkipRetry)
	}

	entry := &domain.Activity{
		UserID:       p.UserID,
		Type:         p.Type,
		Message:      p.Message,
		ResourceType: p.ResourceType,
		ResourceID:   p.ResourceID,
	}
	if err := h.activities.Save(ctx, entry); err != nil {
		return fmt.Errorf("save activity for user %d: %w", p.UserID, err)
	}
	return nil
}
