package repository

import (
	"context"

	"github.com/nwesha/Zcoder/internal/domain"
)

// RoomListQuery narrows and paginates room listings.
type RoomListQuery struct {
	Type      domain.RoomType // empty means any
	Search    string          // matches name or description
	IsPrivate bool
	Page      int
	Limit     int
}

// RoomRepository stores durable room records: membership, the shared
// document, and the append-only chat log.
type RoomRepository interface {
	// FindByID loads a room with its participants. Returns ErrRoomNotFound
	// when absent.
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// List returns a page of active rooms plus the total match count.
	List(ctx context.Context, q RoomListQuery) ([]domain.Room, int64, error)

	// FindByParticipant returns the rooms userID durably belongs to.
	FindByParticipant(ctx context.Context, userID uint) ([]domain.Room, error)

	// Create inserts the room together with its initial participants.
	Create(ctx context.Context, room *domain.Room) error

	// Update persists mutable room attributes (name, settings, flags).
	// Participants and document are managed through the methods below.
	Update(ctx context.Context, room *domain.Room) error

	// Delete removes the room record and everything hanging off it.
	Delete(ctx context.Context, id uint) error

	// AddParticipant appends a membership entry. Returns ErrDuplicateEntry
	// when the user is already a participant.
	AddParticipant(ctx context.Context, roomID uint, p *domain.Participant) error

	// RemoveParticipant deletes the membership entry. Returns
	// ErrParticipantNotFound when the user is not a participant.
	RemoveParticipant(ctx context.Context, roomID, userID uint) error

	// SetOwner updates the room's owner column and promotes the matching
	// participant entry to the owner role.
	SetOwner(ctx context.Context, roomID, userID uint) error

	// IsParticipant reports whether userID is a durable participant of roomID.
	IsParticipant(ctx context.Context, roomID, userID uint) (bool, error)

	// UpdateDocument overwrites the persisted shared document when
	// doc.Version is newer than the stored one. A write for an older
	// version, or for a deleted room, is silently dropped.
	UpdateDocument(ctx context.Context, roomID uint, doc domain.SharedDocument) error

	// AppendChat appends one message to the room's chat log.
	AppendChat(ctx context.Context, msg *domain.ChatMessage) error

	// ChatTail returns the most recent limit messages in append order.
	ChatTail(ctx context.Context, roomID uint, limit int) ([]domain.ChatMessage, error)
}
