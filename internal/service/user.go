package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
)

// UserService handles profile reads/updates and the activity feed.
type UserService struct {
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
}

// NewUserService creates a UserService.
func NewUserService(userRepo repository.UserRepository, activityRepo repository.ActivityRepository) *UserService {
	if userRepo == nil || activityRepo == nil {
		panic("all repositories must be non-nil for UserService")
	}
	return &UserService{userRepo: userRepo, activityRepo: activityRepo}
}

// Get returns the user with the password hash cleared.
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", id).Error("Failed to find user")
		return nil, ErrInternalServer
	}
	user.Password = ""
	return user, nil
}

// ProfileAttrs carries the editable profile fields.
type ProfileAttrs struct {
	FirstName *string
	LastName  *string
	Avatar    *string
	Bio       *string
	Languages *string
}

// UpdateProfile edits the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, attrs ProfileAttrs) (*domain.User, error) {
	logCtx := logrus.WithField("user_id", userID)

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Failed to find user for profile update")
		return nil, ErrInternalServer
	}

	if attrs.FirstName != nil {
		user.FirstName = *attrs.FirstName
	}
	if attrs.LastName != nil {
		user.LastName = *attrs.LastName
	}
	if attrs.Avatar != nil {
		user.Avatar = *attrs.Avatar
	}
	if attrs.Bio != nil {
		user.Bio = *attrs.Bio
	}
	if attrs.Languages != nil {
		user.Languages = *attrs.Languages
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		logCtx.WithError(err).Error("Failed to save profile update")
		return nil, ErrInternalServer
	}
	logCtx.Info("Profile updated")
	user.Password = ""
	return user, nil
}

// RecentActivity returns the user's 20 most recent activity entries.
func (s *UserService) RecentActivity(ctx context.Context, userID uint) ([]domain.Activity, error) {
	activities, err := s.activityRepo.RecentByUser(ctx, userID, 20)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to fetch activity")
		return nil, ErrInternalServer
	}
	return activities, nil
}
