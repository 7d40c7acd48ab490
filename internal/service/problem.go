package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
)

// ProblemService handles the problem catalog.
type ProblemService struct {
	problemRepo repository.ProblemRepository
	activity    ActivitySink
}

// NewProblemService creates a ProblemService.
func NewProblemService(problemRepo repository.ProblemRepository, activity ActivitySink) *ProblemService {
	if problemRepo == nil {
		panic("ProblemRepository cannot be nil for ProblemService")
	}
	if activity == nil {
		panic("ActivitySink cannot be nil for ProblemService")
	}
	return &ProblemService{problemRepo: problemRepo, activity: activity}
}

// ProblemAttrs carries the client-supplied fields of a problem.
type ProblemAttrs struct {
	Title       string
	Description string
	Difficulty  domain.Difficulty
	Category    domain.ProblemCategory
	Tags        string
	StarterCode map[string]string
	TestCases   []domain.TestCase
	IsPublic    *bool
}

// Create adds a problem to the catalog.
func (s *ProblemService) Create(ctx context.Context, authorID uint, attrs ProblemAttrs) (*domain.Problem, error) {
	logCtx := logrus.WithField("author_id", authorID)

	if attrs.Title == "" || attrs.Description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if attrs.Difficulty == "" || attrs.Category == "" {
		return nil, fmt.Errorf("%w: difficulty and category are required", ErrValidation)
	}

	p := &domain.Problem{
		Title:       attrs.Title,
		Description: attrs.Description,
		Difficulty:  attrs.Difficulty,
		Category:    attrs.Category,
		Tags:        attrs.Tags,
		AuthorID:    authorID,
		IsPublic:    true,
	}
	if attrs.IsPublic != nil {
		p.IsPublic = *attrs.IsPublic
	}
	if err := p.SetStarterCode(attrs.StarterCode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := p.SetTestCases(attrs.TestCases); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.problemRepo.Save(ctx, p); err != nil {
		logCtx.WithError(err).Error("Failed to create problem")
		return nil, ErrInternalServer
	}

	s.activity.Record(authorID, domain.ActivityProblem,
		fmt.Sprintf("Created problem: %q", p.Title), "problem", p.ID)
	logCtx.WithField("problem_id", p.ID).Info("Problem created")
	return p, nil
}

// Get returns one problem.
func (s *ProblemService) Get(ctx context.Context, id uint) (*domain.Problem, error) {
	p, err := s.problemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, ErrProblemNotFound
		}
		logrus.WithError(err).WithField("problem_id", id).Error("Failed to find problem")
		return nil, ErrInternalServer
	}
	return p, nil
}

// List returns a page of the public catalog.
func (s *ProblemService) List(ctx context.Context, q repository.ProblemListQuery) ([]domain.Problem, int64, error) {
	problems, total, err := s.problemRepo.List(ctx, q)
	if err != nil {
		logrus.WithError(err).Error("Failed to list problems")
		return nil, 0, ErrInternalServer
	}
	return problems, total, nil
}

// Update applies author-only edits.
func (s *ProblemService) Update(ctx context.Context, id, userID uint, attrs ProblemAttrs) (*domain.Problem, error) {
	logCtx := logrus.WithFields(logrus.Fields{"problem_id": id, "user_id": userID})

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != userID {
		logCtx.Warn("Update rejected: not the problem author")
		return nil, ErrUnauthorized
	}

	if attrs.Title != "" {
		p.Title = attrs.Title
	}
	if attrs.Description != "" {
		p.Description = attrs.Description
	}
	if attrs.Difficulty != "" {
		p.Difficulty = attrs.Difficulty
	}
	if attrs.Category != "" {
		p.Category = attrs.Category
	}
	if attrs.Tags != "" {
		p.Tags = attrs.Tags
	}
	if attrs.StarterCode != nil {
		if err := p.SetStarterCode(attrs.StarterCode); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if attrs.TestCases != nil {
		if err := p.SetTestCases(attrs.TestCases); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if attrs.IsPublic != nil {
		p.IsPublic = *attrs.IsPublic
	}

	if err := s.problemRepo.Save(ctx, p); err != nil {
		logCtx.WithError(err).Error("Failed to update problem")
		return nil, ErrInternalServer
	}
	logCtx.Info("Problem updated")
	return p, nil
}

// Delete removes a problem. Author only.
func (s *ProblemService) Delete(ctx context.Context, id, userID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"problem_id": id, "user_id": userID})

	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != userID {
		logCtx.Warn("Delete rejected: not the problem author")
		return ErrUnauthorized
	}

	if err := s.problemRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return ErrProblemNotFound
		}
		logCtx.WithError(err).Error("Failed to delete problem")
		return ErrInternalServer
	}
	logCtx.Info("Problem deleted")
	return nil
}

// RecordAttempt bumps the attempt counter; failures are logged only.
func (s *ProblemService) RecordAttempt(ctx context.Context, id uint) {
	if err := s.problemRepo.IncrementAttempts(ctx, id); err != nil {
		logrus.WithError(err).WithField("problem_id", id).Warn("Failed to record attempt")
	}
}
