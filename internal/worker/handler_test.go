package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository/mocks"
	"github.com/nwesha/Zcoder/internal/tasks"
)

func TestHandleDocumentPersistWritesThroughGuardedUpdate(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	activities := new(mocks.ActivityRepository)
	h := NewHandlers(rooms, activities)

	var written domain.SharedDocument
	rooms.On("UpdateDocument", mock.Anything, uint(1), mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(2).(domain.SharedDocument) }).
		Return(nil)

	task, err := tasks.NewDocumentPersistTask(1, domain.SharedDocument{Content: "x", Version: 4})
	require.NoError(t, err)

	require.NoError(t, h.HandleDocumentPersist(context.Background(), task))
	assert.Equal(t, "x", written.Content)
	assert.Equal(t, uint64(4), written.Version)

	// Staleness is decided inside the guarded write, not by a read-side
	// pre-check that a concurrent task could race past.
	rooms.AssertNotCalled(t, "FindByID")
}

func TestHandleDocumentPersistRetriesOnWriteFailure(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	h := NewHandlers(rooms, new(mocks.ActivityRepository))

	rooms.On("UpdateDocument", mock.Anything, uint(1), mock.Anything).
		Return(errors.New("db down"))

	task, err := tasks.NewDocumentPersistTask(1, domain.SharedDocument{Version: 2})
	require.NoError(t, err)

	err = h.HandleDocumentPersist(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleDocumentPersistSkipsRetryOnBadPayload(t *testing.T) {
	h := NewHandlers(new(mocks.RoomRepository), new(mocks.ActivityRepository))

	task := asynq.NewTask(tasks.TypeDocumentPersist, []byte("{"))
	err := h.HandleDocumentPersist(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleActivityRecord(t *testing.T) {
	activities := new(mocks.ActivityRepository)
	h := NewHandlers(new(mocks.RoomRepository), activities)

	var saved *domain.Activity
	activities.On("Save", mock.Anything, mock.AnythingOfType("*domain.Activity")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Activity) }).
		Return(nil)

	task, err := tasks.NewActivityRecordTask(tasks.ActivityRecordPayload{
		UserID: 7, Type: domain.ActivityRoom, Message: "Joined room", ResourceType: "room", ResourceID: 1,
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleActivityRecord(context.Background(), task))
	require.NotNil(t, saved)
	assert.Equal(t, uint(7), saved.UserID)
	assert.Equal(t, domain.ActivityRoom, saved.Type)
}
