package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
)

// GormBookmarkRepository is the GORM implementation of BookmarkRepository.
type GormBookmarkRepository struct {
	db *gorm.DB
}

// NewGormBookmarkRepository creates a GormBookmarkRepository.
func NewGormBookmarkRepository(db *gorm.DB) *GormBookmarkRepository {
	if db == nil {
		panic("database connection cannot be nil for GormBookmarkRepository")
	}
	return &GormBookmarkRepository{db: db}
}

func (r *GormBookmarkRepository) FindByID(ctx context.Context, id uint) (*domain.Bookmark, error) {
	var b domain.Bookmark
	err := r.db.WithContext(ctx).First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBookmarkNotFound
		}
		return nil, fmt.Errorf("gorm: find bookmark by id %d: %w", id, err)
	}
	return &b, nil
}

func (r *GormBookmarkRepository) FindByUserAndProblem(ctx context.Context, userID, problemID uint) (*domain.Bookmark, error) {
	var b domain.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBookmarkNotFound
		}
		return nil, fmt.Errorf("gorm: find bookmark (user %d, problem %d): %w", userID, problemID, err)
	}
	return &b, nil
}

func (r *GormBookmarkRepository) List(ctx context.Context, q repository.BookmarkListQuery) ([]domain.Bookmark, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.Bookmark{}).Where("user_id = ?", q.UserID)
	if q.Folder != "" {
		base = base.Where("folder = ?", q.Folder)
	}
	if q.Progress != "" {
		base = base.Where("progress = ?", q.Progress)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm: count bookmarks: %w", err)
	}

	page, limit := normalizePage(q.Page, q.Limit, 20)
	var bookmarks []domain.Bookmark
	err := base.Order("updated_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&bookmarks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("gorm: list bookmarks: %w", err)
	}
	return bookmarks, total, nil
}

func (r *GormBookmarkRepository) Save(ctx context.Context, b *domain.Bookmark) error {
	if err := r.db.WithContext(ctx).Save(b).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save bookmark (id: %d): %w", b.ID, err)
	}
	return nil
}

func (r *GormBookmarkRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Bookmark{}, id)
	if res.Error != nil {
		return fmt.Errorf("gorm: delete bookmark %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrBookmarkNotFound
	}
	return nil
}
