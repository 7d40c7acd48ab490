package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
)

// BookmarkService handles per-user problem bookmarks.
type BookmarkService struct {
	bookmarkRepo repository.BookmarkRepository
	problemRepo  repository.ProblemRepository
	activity     ActivitySink
}

// NewBookmarkService creates a BookmarkService.
func NewBookmarkService(bookmarkRepo repository.BookmarkRepository, problemRepo repository.ProblemRepository, activity ActivitySink) *BookmarkService {
	if bookmarkRepo == nil || problemRepo == nil {
		panic("all repositories must be non-nil for BookmarkService")
	}
	if activity == nil {
		panic("ActivitySink cannot be nil for BookmarkService")
	}
	return &BookmarkService{bookmarkRepo: bookmarkRepo, problemRepo: problemRepo, activity: activity}
}

// BookmarkAttrs carries the editable bookmark fields.
type BookmarkAttrs struct {
	Tags           *string
	Notes          *string
	Progress       *domain.BookmarkProgress
	PersonalRating *int
	TimeSpent      *int
	Folder         *string
}

// Create bookmarks a problem for the user.
func (s *BookmarkService) Create(ctx context.Context, userID, problemID uint, attrs BookmarkAttrs) (*domain.Bookmark, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "problem_id": problemID})

	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, ErrProblemNotFound
		}
		logCtx.WithError(err).Error("Failed to find problem for bookmark")
		return nil, ErrInternalServer
	}

	b := &domain.Bookmark{
		UserID:    userID,
		ProblemID: problemID,
		Progress:  domain.ProgressNotStarted,
		Folder:    "default",
	}
	applyBookmarkAttrs(b, attrs)
	if err := validateBookmark(b); err != nil {
		return nil, err
	}

	if err := s.bookmarkRepo.Save(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrAlreadyBookmarked
		}
		logCtx.WithError(err).Error("Failed to save bookmark")
		return nil, ErrInternalServer
	}

	s.activity.Record(userID, domain.ActivityBookmark,
		fmt.Sprintf("Bookmarked problem: %q", problem.Title), "bookmark", b.ID)
	logCtx.WithField("bookmark_id", b.ID).Info("Bookmark created")
	return b, nil
}

// Get returns one of the caller's bookmarks.
func (s *BookmarkService) Get(ctx context.Context, id, userID uint) (*domain.Bookmark, error) {
	b, err := s.bookmarkRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookmarkNotFound) {
			return nil, ErrBookmarkNotFound
		}
		logrus.WithError(err).WithField("bookmark_id", id).Error("Failed to find bookmark")
		return nil, ErrInternalServer
	}
	if b.UserID != userID {
		return nil, ErrUnauthorized
	}
	return b, nil
}

// List returns a page of the caller's bookmarks.
func (s *BookmarkService) List(ctx context.Context, q repository.BookmarkListQuery) ([]domain.Bookmark, int64, error) {
	bookmarks, total, err := s.bookmarkRepo.List(ctx, q)
	if err != nil {
		logrus.WithError(err).WithField("user_id", q.UserID).Error("Failed to list bookmarks")
		return nil, 0, ErrInternalServer
	}
	return bookmarks, total, nil
}

// Update edits one of the caller's bookmarks. An attempt count bump also
// stamps LastAttempt.
func (s *BookmarkService) Update(ctx context.Context, id, userID uint, attrs BookmarkAttrs, bumpAttempt bool) (*domain.Bookmark, error) {
	logCtx := logrus.WithFields(logrus.Fields{"bookmark_id": id, "user_id": userID})

	b, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	applyBookmarkAttrs(b, attrs)
	if err := validateBookmark(b); err != nil {
		return nil, err
	}
	if bumpAttempt {
		now := time.Now().UTC()
		b.Attempts++
		b.LastAttempt = &now
		s.problemRepo.IncrementAttempts(ctx, b.ProblemID) //nolint:errcheck // counter only
	}

	if err := s.bookmarkRepo.Save(ctx, b); err != nil {
		logCtx.WithError(err).Error("Failed to update bookmark")
		return nil, ErrInternalServer
	}
	logCtx.Info("Bookmark updated")
	return b, nil
}

// Delete removes one of the caller's bookmarks.
func (s *BookmarkService) Delete(ctx context.Context, id, userID uint) error {
	b, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.bookmarkRepo.Delete(ctx, b.ID); err != nil {
		if errors.Is(err, repository.ErrBookmarkNotFound) {
			return ErrBookmarkNotFound
		}
		logrus.WithError(err).WithField("bookmark_id", id).Error("Failed to delete bookmark")
		return ErrInternalServer
	}
	return nil
}

func applyBookmarkAttrs(b *domain.Bookmark, attrs BookmarkAttrs) {
	if attrs.Tags != nil {
		b.Tags = *attrs.Tags
	}
	if attrs.Notes != nil {
		b.Notes = *attrs.Notes
	}
	if attrs.Progress != nil {
		b.Progress = *attrs.Progress
	}
	if attrs.PersonalRating != nil {
		b.PersonalRating = *attrs.PersonalRating
	}
	if attrs.TimeSpent != nil {
		b.TimeSpent = *attrs.TimeSpent
	}
	if attrs.Folder != nil {
		b.Folder = *attrs.Folder
	}
}

func validateBookmark(b *domain.Bookmark) error {
	switch b.Progress {
	case domain.ProgressNotStarted, domain.ProgressInProgress, domain.ProgressCompleted, domain.ProgressNeedReview:
	default:
		return fmt.Errorf("%w: invalid progress value %q", ErrValidation, b.Progress)
	}
	if b.PersonalRating < 0 || b.PersonalRating > 5 {
		return fmt.Errorf("%w: personalRating must be between 1 and 5", ErrValidation)
	}
	if b.TimeSpent < 0 {
		return fmt.Errorf("%w: timeSpent cannot be negative", ErrValidation)
	}
	return nil
}
