package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := NewSQLiteRepository(filepath.Join(s.T().TempDir(), "ledger.db"))
	require.NoError(s.T(), err, "failed to create test database")
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) TestTransactionRoundTrip() {
	debtID := int64(9)
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	created, err := s.repo.Queries().CreateTransaction(s.ctx, core.Transaction{
		UserID:      1,
		Amount:      decimal.RequireFromString("15.99"),
		Kind:        core.Expense,
		Category:    "Streaming",
		Description: "Netflix",
		OccurredAt:  at,
		DebtID:      &debtID,
	})
	require.NoError(s.T(), err)
	assert.NotZero(s.T(), created.ID)

	list, err := s.repo.Queries().ListTransactionsByUser(s.ctx, 1)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 1)

	got := list[0]
	assert.True(s.T(), got.Amount.Equal(decimal.RequireFromString("15.99")))
	assert.Equal(s.T(), core.Expense, got.Kind)
	assert.True(s.T(), got.OccurredAt.Equal(at), "occurred_at %v", got.OccurredAt)
	require.NotNil(s.T(), got.DebtID)
	assert.Equal(s.T(), int64(9), *got.DebtID)
	assert.Nil(s.T(), got.SavingGoalID)

	other, err := s.repo.Queries().ListTransactionsByUser(s.ctx, 2)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), other)
}

func (s *RepositoryTestSuite) TestGetMissingReturnsNotFound() {
	_, err := s.repo.Queries().GetDebt(s.ctx, 404)
	assert.True(s.T(), errors.Is(err, core.ErrNotFound), "got %v", err)

	_, err = s.repo.Queries().GetSavingGoal(s.ctx, 404)
	assert.True(s.T(), errors.Is(err, core.ErrNotFound), "got %v", err)

	_, err = s.repo.Queries().GetRecurringExpense(s.ctx, 404)
	assert.True(s.T(), errors.Is(err, core.ErrNotFound), "got %v", err)

	_, err = s.repo.Queries().GetBudgetCategoryByName(s.ctx, 1, "Nope")
	assert.True(s.T(), errors.Is(err, core.ErrNotFound), "got %v", err)
}

func (s *RepositoryTestSuite) TestRecurringUniquenessBackstop() {
	re := core.RecurringExpense{
		UserID:          1,
		Name:            "Spotify",
		NormalizedName:  "spotify",
		Amount:          decimal.RequireFromString("9.99"),
		Frequency:       core.Monthly,
		DetectedDay:     5,
		ConfidenceScore: 0.9,
		LastChargedAt:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
	}
	first, err := s.repo.Queries().CreateRecurringExpense(s.ctx, re)
	require.NoError(s.T(), err)

	_, err = s.repo.Queries().CreateRecurringExpense(s.ctx, re)
	assert.True(s.T(), errors.Is(err, ErrDuplicate), "got %v", err)

	// Another user may record the same name.
	re.UserID = 2
	_, err = s.repo.Queries().CreateRecurringExpense(s.ctx, re)
	require.NoError(s.T(), err)

	got, err := s.repo.Queries().GetRecurringExpense(s.ctx, first.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Spotify", got.Name)
	assert.Equal(s.T(), core.Monthly, got.Frequency)
	assert.False(s.T(), got.IsConfirmed)
	assert.False(s.T(), got.IsIgnored)
	assert.Equal(s.T(), 5, got.LastChargedAt.Day())
}

func (s *RepositoryTestSuite) TestWithTxRollsBackOnError() {
	boom := errors.New("boom")
	err := s.repo.WithTx(s.ctx, func(q *Queries) error {
		if _, err := q.CreateBudgetCategory(s.ctx, core.BudgetCategory{UserID: 1, Name: "Food", LimitAmount: decimal.NewFromInt(100)}); err != nil {
			return err
		}
		return boom
	})
	require.Error(s.T(), err)
	assert.True(s.T(), errors.Is(err, core.ErrStoreFailure))
	assert.True(s.T(), errors.Is(err, boom))

	cats, err := s.repo.Queries().ListBudgetCategoriesByUser(s.ctx, 1)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), cats, "insert should have been rolled back")
}

func (s *RepositoryTestSuite) TestWithTxKeepsDomainErrors() {
	err := s.repo.WithTx(s.ctx, func(q *Queries) error {
		_, err := q.GetDebt(s.ctx, 1)
		return err
	})
	assert.True(s.T(), errors.Is(err, core.ErrNotFound))
	assert.False(s.T(), errors.Is(err, core.ErrStoreFailure))
}

func (s *RepositoryTestSuite) TestPeriodClosures() {
	closed, err := s.repo.Queries().PeriodClosed(s.ctx, 1, "2025-02")
	require.NoError(s.T(), err)
	assert.False(s.T(), closed)

	seen, err := s.repo.Queries().HasPeriodClosures(s.ctx, 1)
	require.NoError(s.T(), err)
	assert.False(s.T(), seen)

	now := time.Now()
	require.NoError(s.T(), s.repo.Queries().RecordPeriodClosure(s.ctx, 1, "2025-02", now, true))
	err = s.repo.Queries().RecordPeriodClosure(s.ctx, 1, "2025-02", now, false)
	assert.True(s.T(), errors.Is(err, ErrDuplicate), "got %v", err)

	closed, err = s.repo.Queries().PeriodClosed(s.ctx, 1, "2025-02")
	require.NoError(s.T(), err)
	assert.True(s.T(), closed)

	seen, err = s.repo.Queries().HasPeriodClosures(s.ctx, 1)
	require.NoError(s.T(), err)
	assert.True(s.T(), seen)
}

func (s *RepositoryTestSuite) TestListLedgerUsers() {
	q := s.repo.Queries()
	_, err := q.CreateBudgetCategory(s.ctx, core.BudgetCategory{UserID: 3, Name: "Food"})
	require.NoError(s.T(), err)
	_, err = q.CreateDebt(s.ctx, core.Debt{UserID: 1, Name: "Card"})
	require.NoError(s.T(), err)
	_, err = q.CreateDebt(s.ctx, core.Debt{UserID: 3, Name: "Loan"})
	require.NoError(s.T(), err)

	users, err := q.ListLedgerUsers(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []int64{1, 3}, users)
}

func (s *RepositoryTestSuite) TestSavingGoalDeadline() {
	deadline := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	g, err := s.repo.Queries().CreateSavingGoal(s.ctx, core.SavingGoal{
		UserID: 1, Name: "Trip", TargetAmount: decimal.NewFromInt(5000), Deadline: &deadline,
	})
	require.NoError(s.T(), err)

	got, err := s.repo.Queries().GetSavingGoal(s.ctx, g.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got.Deadline)
	assert.True(s.T(), got.Deadline.Equal(deadline))
	assert.True(s.T(), got.CurrentAmount.IsZero())
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
