package domain

import "time"

// BookmarkProgress tracks how far the user got with a bookmarked problem.
type BookmarkProgress string

const (
	ProgressNotStarted BookmarkProgress = "not-started"
	ProgressInProgress BookmarkProgress = "in-progress"
	ProgressCompleted  BookmarkProgress = "completed"
	ProgressNeedReview BookmarkProgress = "need-review"
)

// Bookmark links a user to a problem together with personal study metadata.
// The (user, problem) pair is unique.
type Bookmark struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UserID         uint             `gorm:"uniqueIndex:idx_user_problem;not null" json:"userId"`
	ProblemID      uint             `gorm:"uniqueIndex:idx_user_problem;index;not null" json:"problemId"`
	Tags           string           `gorm:"size:255" json:"tags"` // comma-separated
	Notes          string           `gorm:"type:text" json:"notes"`
	Progress       BookmarkProgress `gorm:"size:20;default:not-started" json:"progress"`
	PersonalRating int              `json:"personalRating"` // 1..5, 0 when unset
	TimeSpent      int              `gorm:"default:0" json:"timeSpent"` // minutes
	Attempts       int              `gorm:"default:0" json:"attempts"`
	LastAttempt    *time.Time       `json:"lastAttempt,omitempty"`
	Folder         string           `gorm:"size:100;default:default" json:"folder"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}
