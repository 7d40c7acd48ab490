package tasks

import (
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/domain"
)

// Enqueuer wraps the asynq client behind the two operations the rest of the
// application needs. Both are fire-and-forget: enqueue failures are logged,
// never propagated, since neither caller can do anything useful with them.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an Enqueuer.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	if client == nil {
		panic("asynq client cannot be nil for Enqueuer")
	}
	return &Enqueuer{client: client}
}

// PersistDocument queues a durable write of the shared document.
func (e *Enqueuer) PersistDocument(roomID uint, doc domain.SharedDocument) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "version": doc.Version})
	task, err := NewDocumentPersistTask(roomID, doc)
	if err != nil {
		logCtx.WithError(err).Error("Failed to build document persist task")
		return
	}
	if _, err := e.client.Enqueue(task); err != nil {
		logCtx.WithError(err).Error("Failed to enqueue document persist task")
		return
	}
	logCtx.Debug("Document persist task enqueued")
}

// Record queues one activity-log append.
func (e *Enqueuer) Record(userID uint, typ domain.ActivityType, message, resourceType string, resourceID uint) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "activity_type": typ})
	task, err := NewActivityRecordTask(ActivityRecordPayload{
		UserID:       userID,
		Type:         typ,
		Message:      message,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to build activity record task")
		return
	}
	if _, err := e.client.Enqueue(task); err != nil {
		logCtx.WithError(err).Error("Failed to enqueue activity record task")
	}
}
