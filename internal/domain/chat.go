package domain

import "time"

// ChatType classifies a chat entry.
type ChatType string

const (
	ChatText   ChatType = "text"
	ChatCode   ChatType = "code"
	ChatSystem ChatType = "system"
)

// ValidChatType reports whether t is one of the accepted chat types.
func ValidChatType(t ChatType) bool {
	switch t {
	case ChatText, ChatCode, ChatSystem:
		return true
	}
	return false
}

// ChatMessage is one entry of a room's append-only chat log. The
// auto-incremented ID doubles as the append order: the log is never reordered
// or truncated by normal operation.
type ChatMessage struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	RoomID uint      `gorm:"index;not null" json:"roomId"`
	UserID uint      `gorm:"index;not null" json:"userId"`
	Body   string    `gorm:"type:text;not null" json:"message"`
	Type   ChatType  `gorm:"size:10;not null;default:text" json:"type"`
	SentAt time.Time `gorm:"index;not null" json:"timestamp"`
}
