// Package repository declares the storage interfaces consumed by the service
// and collaboration layers. Implementations live under internal/infra.
package repository

import (
	"context"

	"github.com/nwesha/Zcoder/internal/domain"
)

// UserRepository stores and retrieves user accounts.
type UserRepository interface {
	// FindByUsername returns ErrUserNotFound when no such user exists.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByID returns ErrUserNotFound when no such user exists.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// Save inserts the user when ID is zero, updates otherwise. Unique
	// constraint violations surface as ErrDuplicateEntry.
	Save(ctx context.Context, user *domain.User) error
}
