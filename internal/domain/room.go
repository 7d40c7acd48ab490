package domain

import "time"

// RoomType categorizes what a room is used for.
type RoomType string

const (
	RoomStudyGroup     RoomType = "study-group"
	RoomInterviewPrep  RoomType = "interview-prep"
	RoomProjectCollab  RoomType = "project-collaboration"
	RoomOpenDiscussion RoomType = "open-discussion"
)

// Role of a participant inside a room.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleModerator   Role = "moderator"
	RoleParticipant Role = "participant"
)

// SharedDocument is the room's single shared code buffer. It is
// last-writer-wins: every accepted update replaces the content wholesale and
// bumps Version by one.
type SharedDocument struct {
	Content        string     `gorm:"type:longtext" json:"content"`
	Language       string     `gorm:"size:50;default:javascript" json:"language"`
	Version        uint64     `gorm:"not null;default:0" json:"version"`
	LastModifiedBy *uint      `json:"lastModifiedBy,omitempty"`
	LastModifiedAt *time.Time `json:"lastModifiedAt,omitempty"`
}

// RoomSettings toggles optional room features.
type RoomSettings struct {
	AllowCodeSharing bool `gorm:"default:true" json:"allowCodeSharing"`
	AllowChat        bool `gorm:"default:true" json:"allowChat"`
	AutoSave         bool `gorm:"default:true" json:"autoSave"`
}

// Room is the durable room record. The owner is always one of the
// participants, and len(Participants) never exceeds MaxParticipants.
type Room struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:191;not null" json:"name"`
	Description      string         `gorm:"type:text" json:"description"`
	Type             RoomType       `gorm:"size:30;default:open-discussion" json:"type"`
	IsPrivate        bool           `gorm:"default:false" json:"isPrivate"`
	Password         string         `gorm:"type:text" json:"-"` // bcrypt hash when private
	MaxParticipants  int            `gorm:"not null;default:10" json:"maxParticipants"`
	OwnerID          uint           `gorm:"index;not null" json:"ownerId"`
	CurrentProblemID *uint          `json:"currentProblemId,omitempty"`
	Document         SharedDocument `gorm:"embedded;embeddedPrefix:doc_" json:"sharedDocument"`
	Settings         RoomSettings   `gorm:"embedded;embeddedPrefix:setting_" json:"settings"`
	IsActive         bool           `gorm:"index;default:true" json:"isActive"`
	Participants     []Participant  `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"participants"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Participant is a durable membership entry, independent of live
// connectivity.
type Participant struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	RoomID   uint      `gorm:"uniqueIndex:idx_room_user;not null" json:"-"`
	UserID   uint      `gorm:"uniqueIndex:idx_room_user;index;not null" json:"userId"`
	Role     Role      `gorm:"size:20;not null;default:participant" json:"role"`
	JoinedAt time.Time `gorm:"not null" json:"joinedAt"`
}

// ParticipantByUser returns the membership entry for userID, or nil.
func (r *Room) ParticipantByUser(userID uint) *Participant {
	for i := range r.Participants {
		if r.Participants[i].UserID == userID {
			return &r.Participants[i]
		}
	}
	return nil
}

// HasParticipant reports whether userID is a durable participant.
func (r *Room) HasParticipant(userID uint) bool {
	return r.ParticipantByUser(userID) != nil
}
