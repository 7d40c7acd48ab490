package repository

import (
	"context"

	"github.com/nwesha/Zcoder/internal/domain"
)

// ProblemListQuery narrows and paginates catalog listings.
type ProblemListQuery struct {
	Difficulty domain.Difficulty      // empty means any
	Category   domain.ProblemCategory // empty means any
	Search     string                 // matches title or description
	Page       int
	Limit      int
}

// ProblemRepository stores the problem catalog.
type ProblemRepository interface {
	// FindByID returns ErrProblemNotFound when absent.
	FindByID(ctx context.Context, id uint) (*domain.Problem, error)

	// List returns a page of public problems plus the total match count.
	List(ctx context.Context, q ProblemListQuery) ([]domain.Problem, int64, error)

	// Save inserts when ID is zero, updates otherwise.
	Save(ctx context.Context, p *domain.Problem) error

	// Delete removes the problem. Returns ErrProblemNotFound when absent.
	Delete(ctx context.Context, id uint) error

	// IncrementAttempts bumps the attempt counter.
	IncrementAttempts(ctx context.Context, id uint) error
}
