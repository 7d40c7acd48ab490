package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
)

// GormProblemRepository is the GORM implementation of ProblemRepository.
type GormProblemRepository struct {
	db *gorm.DB
}

// NewGormProblemRepository creates a GormProblemRepository.
func NewGormProblemRepository(db *gorm.DB) *GormProblemRepository {
	if db == nil {
		panic("database connection cannot be nil for GormProblemRepository")
	}
	return &GormProblemRepository{db: db}
}

func (r *GormProblemRepository) FindByID(ctx context.Context, id uint) (*domain.Problem, error) {
	var p domain.Problem
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProblemNotFound
		}
		return nil, fmt.Errorf("gorm: find problem by id %d: %w", id, err)
	}
	return &p, nil
}

func (r *GormProblemRepository) List(ctx context.Context, q repository.ProblemListQuery) ([]domain.Problem, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.Problem{}).Where("is_public = ?", true)
	if q.Difficulty != "" {
		base = base.Where("difficulty = ?", q.Difficulty)
	}
	if q.Category != "" {
		base = base.Where("category = ?", q.Category)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		base = base.Where("title LIKE ? OR description LIKE ? OR tags LIKE ?", like, like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm: count problems: %w", err)
	}

	page, limit := normalizePage(q.Page, q.Limit, 20)
	var problems []domain.Problem
	err := base.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&problems).Error
	if err != nil {
		return nil, 0, fmt.Errorf("gorm: list problems: %w", err)
	}
	return problems, total, nil
}

func (r *GormProblemRepository) Save(ctx context.Context, p *domain.Problem) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save problem (id: %d): %w", p.ID, err)
	}
	return nil
}

func (r *GormProblemRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Problem{}, id)
	if res.Error != nil {
		return fmt.Errorf("gorm: delete problem %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrProblemNotFound
	}
	return nil
}

func (r *GormProblemRepository) IncrementAttempts(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&domain.Problem{ID: id}).
		Update("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return fmt.Errorf("gorm: increment attempts of problem %d: %w", id, err)
	}
	return nil
}
