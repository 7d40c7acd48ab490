package repository

import (
	"context"

	"github.com/nwesha/Zcoder/internal/domain"
)

// BookmarkListQuery narrows and paginates a user's bookmark listing.
type BookmarkListQuery struct {
	UserID   uint
	Folder   string                  // empty means any
	Progress domain.BookmarkProgress // empty means any
	Page     int
	Limit    int
}

// BookmarkRepository stores per-user problem bookmarks.
type BookmarkRepository interface {
	// FindByID returns ErrBookmarkNotFound when absent.
	FindByID(ctx context.Context, id uint) (*domain.Bookmark, error)

	// FindByUserAndProblem returns ErrBookmarkNotFound when absent.
	FindByUserAndProblem(ctx context.Context, userID, problemID uint) (*domain.Bookmark, error)

	// List returns a page of the user's bookmarks plus the total count.
	List(ctx context.Context, q BookmarkListQuery) ([]domain.Bookmark, int64, error)

	// Save inserts when ID is zero, updates otherwise. Violating the
	// (user, problem) uniqueness surfaces as ErrDuplicateEntry.
	Save(ctx context.Context, b *domain.Bookmark) error

	// Delete removes the bookmark. Returns ErrBookmarkNotFound when absent.
	Delete(ctx context.Context, id uint) error
}
