package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
)

// GormRoomRepository is the GORM implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a GormRoomRepository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			// joined_at first, insertion order as the tie-break
			return db.Order("joined_at ASC, id ASC")
		}).
		First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) List(ctx context.Context, q repository.RoomListQuery) ([]domain.Room, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("is_active = ? AND is_private = ?", true, q.IsPrivate)
	if q.Type != "" {
		base = base.Where("type = ?", q.Type)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		base = base.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm: count rooms: %w", err)
	}

	page, limit := normalizePage(q.Page, q.Limit, 20)
	var rooms []domain.Room
	err := base.Preload("Participants").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, fmt.Errorf("gorm: list rooms: %w", err)
	}
	return rooms, total, nil
}

func (r *GormRoomRepository) FindByParticipant(ctx context.Context, userID uint) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN participants ON participants.room_id = rooms.id AND participants.user_id = ?", userID).
		Preload("Participants").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find rooms by participant %d: %w", userID, err)
	}
	return rooms, nil
}

func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room %q: %w", room.Name, err)
	}
	return nil
}

func (r *GormRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Model(&domain.Room{ID: room.ID}).
		Omit("Participants").
		Updates(map[string]interface{}{
			"name":                      room.Name,
			"description":               room.Description,
			"type":                      room.Type,
			"is_private":                room.IsPrivate,
			"password":                  room.Password,
			"max_participants":          room.MaxParticipants,
			"current_problem_id":        room.CurrentProblemID,
			"setting_allow_code_sharing": room.Settings.AllowCodeSharing,
			"setting_allow_chat":        room.Settings.AllowChat,
			"setting_auto_save":         room.Settings.AutoSave,
			"is_active":                 room.IsActive,
		}).Error
	if err != nil {
		return fmt.Errorf("gorm: update room %d: %w", room.ID, err)
	}
	return nil
}

func (r *GormRoomRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&domain.Participant{}).Error; err != nil {
			return fmt.Errorf("gorm: delete participants of room %d: %w", id, err)
		}
		if err := tx.Where("room_id = ?", id).Delete(&domain.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("gorm: delete chat of room %d: %w", id, err)
		}
		if err := tx.Delete(&domain.Room{}, id).Error; err != nil {
			return fmt.Errorf("gorm: delete room %d: %w", id, err)
		}
		return nil
	})
}

func (r *GormRoomRepository) AddParticipant(ctx context.Context, roomID uint, p *domain.Participant) error {
	p.RoomID = roomID
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: add participant %d to room %d: %w", p.UserID, roomID, err)
	}
	return nil
}

func (r *GormRoomRepository) RemoveParticipant(ctx context.Context, roomID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.Participant{})
	if res.Error != nil {
		return fmt.Errorf("gorm: remove participant %d from room %d: %w", userID, roomID, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrParticipantNotFound
	}
	return nil
}

func (r *GormRoomRepository) SetOwner(ctx context.Context, roomID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Room{ID: roomID}).Update("owner_id", userID).Error; err != nil {
			return fmt.Errorf("gorm: set owner of room %d: %w", roomID, err)
		}
		err := tx.Model(&domain.Participant{}).
			Where("room_id = ? AND user_id = ?", roomID, userID).
			Update("role", domain.RoleOwner).Error
		if err != nil {
			return fmt.Errorf("gorm: promote participant %d in room %d: %w", userID, roomID, err)
		}
		return nil
	})
}

func (r *GormRoomRepository) IsParticipant(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count participant %d in room %d: %w", userID, roomID, err)
	}
	return count > 0, nil
}

func (r *GormRoomRepository) UpdateDocument(ctx context.Context, roomID uint, doc domain.SharedDocument) error {
	// The version guard lives in the WHERE clause so concurrent writers
	// cannot interleave a read-then-write and let an older copy win.
	res := r.db.WithContext(ctx).Model(&domain.Room{ID: roomID}).
		Where("doc_version < ?", doc.Version).
		Updates(map[string]interface{}{
			"doc_content":          doc.Content,
			"doc_language":         doc.Language,
			"doc_version":          doc.Version,
			"doc_last_modified_by": doc.LastModifiedBy,
			"doc_last_modified_at": doc.LastModifiedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("gorm: update document of room %d: %w", roomID, res.Error)
	}
	// Zero rows means the room is gone or a version at least this new is
	// already durable; either way the write is obsolete, not an error.
	return nil
}

func (r *GormRoomRepository) AppendChat(ctx context.Context, msg *domain.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("gorm: append chat to room %d: %w", msg.RoomID, err)
	}
	return nil
}

func (r *GormRoomRepository) ChatTail(ctx context.Context, roomID uint, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	var tail []domain.ChatMessage
	// Fetch the newest messages, then flip back into append order.
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&tail).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: chat tail of room %d: %w", roomID, err)
	}
	for i, j := 0, len(tail)-1; i < j; i, j = i+1, j-1 {
		tail[i], tail[j] = tail[j], tail[i]
	}
	return tail, nil
}

// normalizePage clamps pagination values to sane bounds.
func normalizePage(page, limit, defLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defLimit
	}
	return page, limit
}
