package collab

import (
	"context"
	"fmt"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
	"github.com/nwesha/Zcoder/internal/tasks"
)

// Gateway is the session's only view of durable storage. Sessions never
// touch repositories directly so tests can drive them with a fake.
type Gateway interface {
	// LoadRoom fetches the durable room record with its participants.
	LoadRoom(ctx context.Context, roomID uint) (*domain.Room, error)

	// ChatTail returns up to limit most recent chat messages in append order.
	ChatTail(ctx context.Context, roomID uint, limit int) ([]domain.ChatMessage, error)

	// AppendChat durably appends one chat message. Called synchronously
	// before the message is broadcast.
	AppendChat(ctx context.Context, msg *domain.ChatMessage) error

	// PersistDocumentAsync schedules a durable write of the shared
	// document. Fire and forget; retries happen out of band.
	PersistDocumentAsync(roomID uint, doc domain.SharedDocument)

	// FlushDocument durably writes the shared document, synchronously.
	// Used when a session is torn down.
	FlushDocument(ctx context.Context, roomID uint, doc domain.SharedDocument) error

	// UserRef resolves a user id to its public reference.
	UserRef(ctx context.Context, userID uint) (domain.UserRef, error)
}

// StoreGateway is the production Gateway over the GORM repositories and the
// asynq enqueuer.
type StoreGateway struct {
	rooms    repository.RoomRepository
	users    repository.UserRepository
	enqueuer *tasks.Enqueuer
}

func NewStoreGateway(rooms repository.RoomRepository, users repository.UserRepository, enqueuer *tasks.Enqueuer) *StoreGateway {
	if rooms == nil || users == nil || enqueuer == nil {
		panic("collab: NewStoreGateway requires non-nil dependencies")
	}
	return &StoreGateway{rooms: rooms, users: users, enqueuer: enqueuer}
}

func (g *StoreGateway) LoadRoom(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := g.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load room %d: %w", roomID, err)
	}
	return room, nil
}

func (g *StoreGateway) ChatTail(ctx context.Context, roomID uint, limit int) ([]domain.ChatMessage, error) {
	return g.rooms.ChatTail(ctx, roomID, limit)
}

func (g *StoreGateway) AppendChat(ctx context.Context, msg *domain.ChatMessage) error {
	return g.rooms.AppendChat(ctx, msg)
}

func (g *StoreGateway) PersistDocumentAsync(roomID uint, doc domain.SharedDocument) {
	g.enqueuer.PersistDocument(roomID, doc)
}

func (g *StoreGateway) FlushDocument(ctx context.Context, roomID uint, doc domain.SharedDocument) error {
	return g.rooms.UpdateDocument(ctx, roomID, doc)
}

func (g *StoreGateway) UserRef(ctx context.Context, userID uint) (domain.UserRef, error) {
	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		return domain.UserRef{}, err
	}
	return user.Ref(), nil
}
