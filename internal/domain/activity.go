package domain

import "time"

// ActivityType classifies an activity-log entry.
type ActivityType string

const (
	ActivityProblem  ActivityType = "problem"
	ActivityBookmark ActivityType = "bookmark"
	ActivityRoom     ActivityType = "room"
	ActivityChat     ActivityType = "chat"
	ActivityOther    ActivityType = "other"
)

// Activity is one entry of a user's activity feed.
type Activity struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"index:idx_user_created;not null" json:"userId"`
	Type         ActivityType `gorm:"size:20;not null" json:"type"`
	Message      string       `gorm:"size:255;not null" json:"message"`
	ResourceType string       `gorm:"size:20" json:"resourceType,omitempty"`
	ResourceID   uint         `json:"resourceId,omitempty"`
	CreatedAt    time.Time    `gorm:"autoCreateTime;index:idx_user_created" json:"createdAt"`
}
