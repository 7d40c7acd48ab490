package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nwesha/Zcoder/internal/domain"
)

// GormActivityRepository is the GORM implementation of ActivityRepository.
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a GormActivityRepository.
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	if db == nil {
		panic("database connection cannot be nil for GormActivityRepository")
	}
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) Save(ctx context.Context, a *domain.Activity) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("gorm: save activity for user %d: %w", a.UserID, err)
	}
	return nil
}

func (r *GormActivityRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	var activities []domain.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: recent activity of user %d: %w", userID, err)
	}
	return activities, nil
}
