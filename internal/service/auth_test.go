package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository"
	"github.com/nwesha/Zcoder/internal/repository/mocks"
)

func newAuthService(t *testing.T, repo *mocks.UserRepository) *AuthService {
	t.Helper()
	svc, err := NewAuthService(repo, "test-secret", 1)
	require.NoError(t, err)
	return svc
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	_, err := NewAuthService(new(mocks.UserRepository), "", 1)
	assert.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	repo := new(mocks.UserRepository)
	svc := newAuthService(t, repo)

	_, err := svc.Register(context.Background(), "", "secret1", "a@b.c")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(context.Background(), "alice", "short", "a@b.c")
	assert.ErrorIs(t, err, ErrValidation)

	repo.AssertNotCalled(t, "Save")
}

func TestRegisterHashesPasswordAndClearsIt(t *testing.T) {
	repo := new(mocks.UserRepository)
	svc := newAuthService(t, repo)

	// Register clears Password on the saved struct before returning, so the
	// hash has to be copied out while Save still sees it.
	var savedHash string
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			u := args.Get(1).(*domain.User)
			u.ID = 42
			savedHash = u.Password
		}).
		Return(nil)

	user, err := svc.Register(context.Background(), "alice", "secret1", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint(42), user.ID)
	assert.Empty(t, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(savedHash), []byte("secret1")))
}

func TestRegisterDuplicate(t *testing.T) {
	repo := new(mocks.UserRepository)
	svc := newAuthService(t, repo)

	repo.On("Save", mock.Anything, mock.Anything).Return(repository.ErrDuplicateEntry)

	_, err := svc.Register(context.Background(), "alice", "secret1", "alice@example.com")
	assert.ErrorIs(t, err, ErrRegistrationFailed)
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo := new(mocks.UserRepository)
	svc := newAuthService(t, repo)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.On("FindByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 42, Username: "alice", Password: string(hash)}, nil)

	token, user, err := svc.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Empty(t, user.Password)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["user_id"])
}

func TestLoginUniformFailure(t *testing.T) {
	repo := new(mocks.UserRepository)
	svc := newAuthService(t, repo)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.On("FindByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 42, Username: "alice", Password: string(hash)}, nil)
	repo.On("FindByUsername", mock.Anything, "nobody").
		Return(nil, repository.ErrUserNotFound)

	// Wrong password and unknown user look identical to the caller.
	_, _, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(context.Background(), "nobody", "secret1")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
