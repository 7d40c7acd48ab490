package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nwesha/Zcoder/internal/domain"
	"github.com/nwesha/Zcoder/internal/repository/mocks"
)

func TestCreateProblemValidation(t *testing.T) {
	repo := new(mocks.ProblemRepository)
	svc := NewProblemService(repo, nopSink{})

	_, err := svc.Create(context.Background(), 1, ProblemAttrs{Title: "two sum"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), 1, ProblemAttrs{
		Title: "two sum", Description: "d",
	})
	assert.ErrorIs(t, err, ErrValidation) // missing difficulty/category

	repo.AssertNotCalled(t, "Save")
}

func TestCreateProblemSerializesTestCases(t *testing.T) {
	repo := new(mocks.ProblemRepository)
	svc := NewProblemService(repo, nopSink{})

	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Problem")).Return(nil)

	p, err := svc.Create(context.Background(), 1, ProblemAttrs{
		Title:       "two sum",
		Description: "find indices",
		Difficulty:  domain.DifficultyEasy,
		Category:    domain.CategoryAlgorithms,
		StarterCode: map[string]string{"python": "def two_sum(nums, target):"},
		TestCases:   []domain.TestCase{{Input: "[2,7], 9", ExpectedOutput: "[0,1]"}},
	})
	require.NoError(t, err)
	assert.True(t, p.IsPublic)

	cases, err := p.ParseTestCases()
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "[0,1]", cases[0].ExpectedOutput)

	starter, err := p.ParseStarterCode()
	require.NoError(t, err)
	assert.Contains(t, starter, "python")
}

func TestUpdateProblemAuthorOnly(t *testing.T) {
	repo := new(mocks.ProblemRepository)
	svc := NewProblemService(repo, nopSink{})

	repo.On("FindByID", mock.Anything, uint(1)).
		Return(&domain.Problem{ID: 1, Title: "old", AuthorID: 1}, nil)

	_, err := svc.Update(context.Background(), 1, 2, ProblemAttrs{Title: "new"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	repo.AssertNotCalled(t, "Save")

	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	p, err := svc.Update(context.Background(), 1, 1, ProblemAttrs{Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", p.Title)
}

func TestDeleteProblemAuthorOnly(t *testing.T) {
	repo := new(mocks.ProblemRepository)
	svc := NewProblemService(repo, nopSink{})

	repo.On("FindByID", mock.Anything, uint(1)).
		Return(&domain.Problem{ID: 1, AuthorID: 1}, nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), 1, 2), ErrUnauthorized)

	repo.On("Delete", mock.Anything, uint(1)).Return(nil)
	assert.NoError(t, svc.Delete(context.Background(), 1, 1))
}
