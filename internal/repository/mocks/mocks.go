// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) List(ctx context.Context, q repository.RoomListQuery) ([]domain.Room, int64, error) {
	args := m.Called(ctx, q)
	var rooms []domain.Room
	if v := args.Get(0); v != nil {
		rooms = v.([]domain.Room)
	}
	return rooms, args.Get(1).(int64), args.Error(2)
}

func (m *RoomRepository) FindByParticipant(ctx context.Context, userID uint) ([]domain.Room, error) {
	args := m.Called(ctx, userID)
	var rooms []domain.Room
	if v := args.Get(0); v != nil {
		rooms = v.([]domain.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *RoomRepository) Update(ctx context.Context, room *domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *RoomRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RoomRepository) AddParticipant(ctx context.Context, roomID uint, p *domain.Participant) error {
	return m.Called(ctx, roomID, p).Error(0)
}

func (m *RoomRepository) RemoveParticipant(ctx context.Context, roomID, userID uint) error {
	return m.Called(ctx, roomID, userID).Error(0)
}

func (m *RoomRepository) SetOwner(ctx context.Context, roomID, userID uint) error {
	return m.Called(ctx, roomID, userID).Error(0)
}

func (m *RoomRepository) IsParticipant(ctx context.Context, roomID, userID uint) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) UpdateDocument(ctx context.Context, roomID uint, doc domain.SharedDocument) error {
	return m.Called(ctx, roomID, doc).Error(0)
}

func (m *RoomRepository) AppendChat(ctx context.Context, msg *domain.ChatMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *RoomRepository) ChatTail(ctx context.Context, roomID uint, limit int) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []domain.ChatMessage
	if v := args.Get(0); v != nil {
		msgs = v.([]domain.ChatMessage)
	}
	return msgs, args.Error(1)
}

type ProblemRepository struct {
	mock.Mock
}

func (m *ProblemRepository) FindByID(ctx context.Context, id uint) (*domain.Problem, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.Problem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProblemRepository) List(ctx context.Context, q repository.ProblemListQuery) ([]domain.Problem, int64, error) {
	args := m.Called(ctx, q)
	var problems []domain.Problem
	if v := args.Get(0); v != nil {
		problems = v.([]domain.Problem)
	}
	return problems, args.Get(1).(int64), args.Error(2)
}

func (m *ProblemRepository) Save(ctx context.Context, p *domain.Problem) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProblemRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ProblemRepository) IncrementAttempts(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type BookmarkRepository struct {
	mock.Mock
}

func (m *BookmarkRepository) FindByID(ctx context.Context, id uint) (*domain.Bookmark, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*domain.Bookmark), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BookmarkRepository) FindByUserAndProblem(ctx context.Context, userID, problemID uint) (*domain.Bookmark, error) {
	args := m.Called(ctx, userID, problemID)
	if b := args.Get(0); b != nil {
		return b.(*domain.Bookmark), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BookmarkRepository) List(ctx context.Context, q repository.BookmarkListQuery) ([]domain.Bookmark, int64, error) {
	args := m.Called(ctx, q)
	var bookmarks []domain.Bookmark
	if v := args.Get(0); v != nil {
		bookmarks = v.([]domain.Bookmark)
	}
	return bookmarks, args.Get(1).(int64), args.Error(2)
}

func (m *BookmarkRepository) Save(ctx context.Context, b *domain.Bookmark) error {
	return m.Called(ctx, b).Error(0)
}

func (m *BookmarkRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Save(ctx context.Context, a *domain.Activity) error {
	return m.Called(ctx, a).Error(0)
}

func (m *ActivityRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]domain.Activity, error) {
	args := m.Called(ctx, userID, limit)
	var entries []domain.Activity
	if v := args.Get(0); v != nil {
		entries = v.([]domain.Activity)
	}
	return entries, args.Error(1)
}
