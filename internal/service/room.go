package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
)

// ErrNotParticipant is returned by Leave when the user has no durable
// membership to remove.
var ErrNotParticipant = errors.New("user is not a participant of this room")

// ActivitySink records activity-log entries out of band. Implementations
// must never block the caller.
type ActivitySink interface {
	Record(userID uint, typ domain.ActivityType, message, resourceType string, resourceID uint)
}

// RoomService owns the durable Room record: create, join, leave, ownership
// transfer. Live connections never mutate membership; they only read it at
// bind time.
type RoomService struct {
	roomRepo repository.RoomRepository
	activity ActivitySink
}

// NewRoomService creates a RoomService.
func NewRoomService(roomRepo repository.RoomRepository, activity ActivitySink) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if activity == nil {
		panic("ActivitySink cannot be nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo, activity: activity}
}

// CreateRoomAttrs carries the client-supplied attributes of a new room.
type CreateRoomAttrs struct {
	Name            string
	Description     string
	Type            domain.RoomType
	IsPrivate       bool
	Password        string
	MaxParticipants int
	Settings        domain.RoomSettings
}

// Create makes a new room with the creator as its sole owner-participant.
func (s *RoomService) Create(ctx context.Context, ownerID uint, attrs CreateRoomAttrs) (*domain.Room, error) {
	logCtx := logrus.WithField("owner_id", ownerID)

	if attrs.Name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrValidation)
	}
	if attrs.MaxParticipants == 0 {
		attrs.MaxParticipants = 10
	}
	if attrs.MaxParticipants < 2 || attrs.MaxParticipants > 50 {
		return nil, fmt.Errorf("%w: maxParticipants must be between 2 and 50", ErrValidation)
	}
	if attrs.Type == "" {
		attrs.Type = domain.RoomOpenDiscussion
	}
	if attrs.IsPrivate && attrs.Password == "" {
		return nil, fmt.Errorf("%w: private rooms require a password", ErrValidation)
	}

	room := &domain.Room{
		Name:            attrs.Name,
		Description:     attrs.Description,
		Type:            attrs.Type,
		IsPrivate:       attrs.IsPrivate,
		MaxParticipants: attrs.MaxParticipants,
		OwnerID:         ownerID,
		Document:        domain.SharedDocument{Language: "javascript"},
		Settings:        attrs.Settings,
		IsActive:        true,
		Participants: []domain.Participant{
			{UserID: ownerID, Role: domain.RoleOwner, JoinedAt: time.Now().UTC()},
		},
	}
	if attrs.IsPrivate {
		// Room passwords are stored hashed, same as user credentials.
		hash, err := bcrypt.GenerateFromPassword([]byte(attrs.Password), bcrypt.DefaultCost)
		if err != nil {
			logCtx.WithError(err).Error("Failed to hash room password")
			return nil, ErrInternalServer
		}
		room.Password = string(hash)
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to create room")
		return nil, ErrInternalServer
	}

	s.activity.Record(ownerID, domain.ActivityRoom,
		fmt.Sprintf("Created room: %q", room.Name), "room", room.ID)
	logCtx.WithField("room_id", room.ID).Info("Room created")
	return room, nil
}

// Join adds userID as a durable participant. Distinct failures: room absent,
// room full, already a member, private-room password mismatch.
func (s *RoomService) Join(ctx context.Context, roomID, userID uint, password string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	room, err := s.findRoom(ctx, roomID, logCtx)
	if err != nil {
		return nil, err
	}

	if len(room.Participants) >= room.MaxParticipants {
		logCtx.Warn("Join rejected: room at capacity")
		return nil, ErrCapacityExceeded
	}
	if room.HasParticipant(userID) {
		logCtx.Debug("Join rejected: already a participant")
		return nil, ErrAlreadyMember
	}
	if room.IsPrivate {
		if bcrypt.CompareHashAndPassword([]byte(room.Password), []byte(password)) != nil {
			logCtx.Warn("Join rejected: invalid room password")
			return nil, ErrUnauthorized
		}
	}

	p := &domain.Participant{
		UserID:   userID,
		Role:     domain.RoleParticipant,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.roomRepo.AddParticipant(ctx, roomID, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Lost a race with a concurrent join by the same user.
			return nil, ErrAlreadyMember
		}
		logCtx.WithError(err).Error("Failed to add participant")
		return nil, ErrInternalServer
	}
	room.Participants = append(room.Participants, *p)

	s.activity.Record(userID, domain.ActivityRoom,
		fmt.Sprintf("Joined room: %q", room.Name), "room", room.ID)
	logCtx.Info("User joined room")
	return room, nil
}

// Leave removes userID's durable membership. When the owner leaves,
// ownership transfers to the remaining participant with the earliest
// JoinedAt (ties broken by insertion order); when the last participant
// leaves, the room record is deleted.
func (s *RoomService) Leave(ctx context.Context, roomID, userID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	room, err := s.findRoom(ctx, roomID, logCtx)
	if err != nil {
		return err
	}
	if !room.HasParticipant(userID) {
		logCtx.Warn("Leave rejected: not a participant")
		return ErrNotParticipant
	}

	if err := s.roomRepo.RemoveParticipant(ctx, roomID, userID); err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return ErrNotParticipant
		}
		logCtx.WithError(err).Error("Failed to remove participant")
		return ErrInternalServer
	}

	if room.OwnerID == userID {
		// Participants are loaded ordered by joined_at, then insertion order,
		// so the first remaining entry is the deterministic successor.
		var successor *domain.Participant
		for i := range room.Participants {
			if room.Participants[i].UserID != userID {
				successor = &room.Participants[i]
				break
			}
		}
		if successor == nil {
			if err := s.roomRepo.Delete(ctx, roomID); err != nil {
				logCtx.WithError(err).Error("Failed to delete empty room")
				return ErrInternalServer
			}
			s.activity.Record(userID, domain.ActivityRoom,
				fmt.Sprintf("Left room: %q (room deleted)", room.Name), "room", room.ID)
			logCtx.Info("Last participant left, room deleted")
			return nil
		}
		if err := s.roomRepo.SetOwner(ctx, roomID, successor.UserID); err != nil {
			logCtx.WithError(err).Error("Failed to transfer ownership")
			return ErrInternalServer
		}
		logCtx.WithField("new_owner_id", successor.UserID).Info("Ownership transferred")
	}

	s.activity.Record(userID, domain.ActivityRoom,
		fmt.Sprintf("Left room: %q", room.Name), "room", room.ID)
	logCtx.Info("User left room")
	return nil
}

// Get returns a room. Private rooms are only visible to their participants.
func (s *RoomService) Get(ctx context.Context, roomID, viewerID uint) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": viewerID})

	room, err := s.findRoom(ctx, roomID, logCtx)
	if err != nil {
		return nil, err
	}
	if room.IsPrivate && !room.HasParticipant(viewerID) {
		logCtx.Warn("Access denied to private room")
		return nil, ErrUnauthorized
	}
	return room, nil
}

// List returns a page of active public rooms.
func (s *RoomService) List(ctx context.Context, q repository.RoomListQuery) ([]domain.Room, int64, error) {
	rooms, total, err := s.roomRepo.List(ctx, q)
	if err != nil {
		logrus.WithError(err).Error("Failed to list rooms")
		return nil, 0, ErrInternalServer
	}
	return rooms, total, nil
}

// UserRooms returns the rooms the user durably belongs to.
func (s *RoomService) UserRooms(ctx context.Context, userID uint) ([]domain.Room, error) {
	rooms, err := s.roomRepo.FindByParticipant(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list user rooms")
		return nil, ErrInternalServer
	}
	return rooms, nil
}

// UpdateRoomAttrs carries the owner-editable attributes of a room.
type UpdateRoomAttrs struct {
	Name        *string
	Description *string
	Type        *domain.RoomType
	Settings    *domain.RoomSettings
}

// Update applies owner-only attribute changes.
func (s *RoomService) Update(ctx context.Context, roomID, userID uint, attrs UpdateRoomAttrs) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	room, err := s.findRoom(ctx, roomID, logCtx)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != userID {
		logCtx.Warn("Update rejected: not the room owner")
		return nil, ErrUnauthorized
	}

	if attrs.Name != nil {
		if *attrs.Name == "" {
			return nil, fmt.Errorf("%w: room name cannot be empty", ErrValidation)
		}
		room.Name = *attrs.Name
	}
	if attrs.Description != nil {
		room.Description = *attrs.Description
	}
	if attrs.Type != nil {
		room.Type = *attrs.Type
	}
	if attrs.Settings != nil {
		room.Settings = *attrs.Settings
	}

	if err := s.roomRepo.Update(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to update room")
		return nil, ErrInternalServer
	}
	logCtx.Info("Room updated")
	return room, nil
}

// Delete removes the room entirely. Owner only.
func (s *RoomService) Delete(ctx context.Context, roomID, userID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	room, err := s.findRoom(ctx, roomID, logCtx)
	if err != nil {
		return err
	}
	if room.OwnerID != userID {
		logCtx.Warn("Delete rejected: not the room owner")
		return ErrUnauthorized
	}

	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		logCtx.WithError(err).Error("Failed to delete room")
		return ErrInternalServer
	}
	logCtx.Info("Room deleted")
	return nil
}

// IsParticipant reports durable membership; used by the connection binder.
func (s *RoomService) IsParticipant(ctx context.Context, roomID, userID uint) (bool, error) {
	ok, err := s.roomRepo.IsParticipant(ctx, roomID, userID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).
			Error("Failed to check participant")
		return false, ErrInternalServer
	}
	return ok, nil
}

func (s *RoomService) findRoom(ctx context.Context, roomID uint, logCtx *logrus.Entry) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Repository error finding room")
		return nil, ErrInternalServer
	}
	if room == nil {
		logCtx.Warn("Repository returned nil room without error")
		return nil, ErrRoomNotFound
	}
	return room, nil
}
