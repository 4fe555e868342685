package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

var periodLog = applog.Component(applog.ComponentPeriod)

// PeriodService runs the month-end operations and the budget report.
type PeriodService struct {
	store Store
}

func NewPeriodService(store Store) *PeriodService {
	return &PeriodService{store: store}
}

// CloseMonth rolls every category of the user into the next period.
// All categories are updated or none are.
func (s *PeriodService) CloseMonth(ctx context.Context, userID int64) ([]core.ClosureRow, error) {
	var rows []core.ClosureRow
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		rows, err = closeCategories(ctx, q, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("close month: %w", err)
	}
	periodLog.InfoContext(ctx, "Month closed", applog.FieldUserID, userID, "categories", len(rows))
	return rows, nil
}

// ApplyMonthlyInterest adds one month of interest to every debt of the user
// that has a positive balance and rate.
func (s *PeriodService) ApplyMonthlyInterest(ctx context.Context, userID int64) ([]core.AccrualRow, error) {
	var rows []core.AccrualRow
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		rows, err = accrueInterest(ctx, q, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("apply interest: %w", err)
	}
	periodLog.InfoContext(ctx, "Monthly interest applied", applog.FieldUserID, userID, "debts", len(rows))
	return rows, nil
}

// BudgetStatus reports how much of each category's limit plus rollover has
// been spent. Categories with nothing to spend are left out.
func (s *PeriodService) BudgetStatus(ctx context.Context, userID int64) ([]core.StatusRow, error) {
	cats, err := s.store.Queries().ListBudgetCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	rows := make([]core.StatusRow, 0, len(cats))
	for _, c := range cats {
		if row, ok := core.ClassifyBudget(c); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func closeCategories(ctx context.Context, q *storage.Queries, userID int64) ([]core.ClosureRow, error) {
	cats, err := q.ListBudgetCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows := make([]core.ClosureRow, 0, len(cats))
	for _, c := range cats {
		closed, row := core.CloseCategory(c)
		if err := q.UpdateBudgetCategoryAmounts(ctx, closed); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func accrueInterest(ctx context.Context, q *storage.Queries, userID int64) ([]core.AccrualRow, error) {
	debts, err := q.ListDebtsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows := make([]core.AccrualRow, 0, len(debts))
	for _, d := range debts {
		updated, row, ok := core.AccrueInterest(d)
		if !ok {
			continue
		}
		if err := q.UpdateDebtBalance(ctx, updated.ID, updated.CurrentBalance); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
