package repository

import (
	"context"

	"github.com/nwesha/Zcoder/internal/domain"
)

// ActivityRepository is the append-only activity-log sink.
type ActivityRepository interface {
	// Save appends one activity entry.
	Save(ctx context.Context, a *domain.Activity) error

	// RecentByUser returns the user's most recent entries, newest first.
	RecentByUser(ctx context.Context, userID uint, limit int) ([]domain.Activity, error)
}
