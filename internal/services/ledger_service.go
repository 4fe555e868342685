package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

var logger = applog.Component(applog.ComponentLedger)

// LedgerService records transactions and keeps the budget, debt and goal
// balances they touch consistent with them.
type LedgerService struct {
	store     Store
	publisher EventPublisher
	now       func() time.Time
}

func NewLedgerService(store Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// PostTransaction stores the transaction for userID and, in the same
// database transaction, applies its side effects:
//   - an expense with a category adds to that category's spent amount
//   - a debt reference reduces the debt balance, floored at zero
//   - a goal reference adds to the goal's current amount
//
// References that do not resolve, or resolve to another user's records, are
// skipped without error. If any write fails nothing is persisted.
func (s *LedgerService) PostTransaction(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	txn := core.Transaction{
		UserID:       userID,
		Amount:       in.Amount,
		Kind:         in.Kind,
		Category:     in.Category,
		Description:  in.Description,
		OccurredAt:   occurredAt,
		DebtID:       in.DebtID,
		SavingGoalID: in.SavingGoalID,
	}

	var posted core.Transaction
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		if posted, err = q.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		if err := applyToCategory(ctx, q, posted); err != nil {
			return err
		}
		if err := applyToDebt(ctx, q, posted); err != nil {
			return err
		}
		return applyToGoal(ctx, q, posted)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("post transaction: %w", err)
	}

	logger.InfoContext(ctx, "Transaction posted",
		applog.FieldUserID, userID,
		applog.FieldTransactionID, posted.ID,
		applog.FieldKind, posted.Kind,
		applog.FieldAmount, posted.Amount.String(),
		applog.FieldCategory, posted.Category)

	publish(ctx, s.publisher, amqp.NewLedgerEvent(amqp.EventTransactionPosted, userID, posted.ID))
	return posted, nil
}

func applyToCategory(ctx context.Context, q *storage.Queries, t core.Transaction) error {
	if t.Kind != core.Expense || t.Category == "" {
		return nil
	}
	cat, err := q.GetBudgetCategoryByName(ctx, t.UserID, t.Category)
	if errors.Is(err, core.ErrNotFound) {
		logger.DebugContext(ctx, "Category side effect skipped",
			applog.FieldTransactionID, t.ID, "reason", "no matching category")
		return nil
	}
	if err != nil {
		return err
	}
	cat.SpentAmount = cat.SpentAmount.Add(t.Amount)
	return q.UpdateBudgetCategoryAmounts(ctx, cat)
}

func applyToDebt(ctx context.Context, q *storage.Queries, t core.Transaction) error {
	if t.DebtID == nil {
		return nil
	}
	debt, err := q.GetDebt(ctx, *t.DebtID)
	if errors.Is(err, core.ErrNotFound) {
		logger.DebugContext(ctx, "Debt side effect skipped",
			applog.FieldTransactionID, t.ID, "reason", "debt not found")
		return nil
	}
	if err != nil {
		return err
	}
	if debt.UserID != t.UserID {
		logger.DebugContext(ctx, "Debt side effect skipped",
			applog.FieldTransactionID, t.ID, "reason", "debt owned by another user")
		return nil
	}
	paid := core.ApplyPayment(debt, t.Amount)
	return q.UpdateDebtBalance(ctx, paid.ID, paid.CurrentBalance)
}

func applyToGoal(ctx context.Context, q *storage.Queries, t core.Transaction) error {
	if t.SavingGoalID == nil {
		return nil
	}
	goal, err := q.GetSavingGoal(ctx, *t.SavingGoalID)
	if errors.Is(err, core.ErrNotFound) {
		logger.DebugContext(ctx, "Goal side effect skipped",
			applog.FieldTransactionID, t.ID, "reason", "goal not found")
		return nil
	}
	if err != nil {
		return err
	}
	if goal.UserID != t.UserID {
		logger.DebugContext(ctx, "Goal side effect skipped",
			applog.FieldTransactionID, t.ID, "reason", "goal owned by another user")
		return nil
	}
	return q.UpdateSavingGoalAmount(ctx, goal.ID, goal.CurrentAmount.Add(t.Amount))
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	txs, err := s.store.Queries().ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	return nonNil(txs), nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, userID int64, c core.BudgetCategory) (core.BudgetCategory, error) {
	c.UserID = userID
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	created, err := s.store.Queries().CreateBudgetCategory(ctx, c)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	logger.InfoContext(ctx, "Budget category created", applog.FieldUserID, userID, applog.FieldCategory, created.Name)
	return created, nil
}

func (s *LedgerService) ListCategories(ctx context.Context, userID int64) ([]core.BudgetCategory, error) {
	cats, err := s.store.Queries().ListBudgetCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	return nonNil(cats), nil
}

// CreateDebt starts the balance at the total when no balance is given.
func (s *LedgerService) CreateDebt(ctx context.Context, userID int64, d core.Debt) (core.Debt, error) {
	d.UserID = userID
	if d.CurrentBalance.IsZero() {
		d.CurrentBalance = d.TotalAmount
	}
	if err := d.Validate(); err != nil {
		return core.Debt{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	created, err := s.store.Queries().CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	logger.InfoContext(ctx, "Debt created", applog.FieldUserID, userID, applog.FieldDebtID, created.ID)
	return created, nil
}

func (s *LedgerService) ListDebts(ctx context.Context, userID int64) ([]core.Debt, error) {
	debts, err := s.store.Queries().ListDebtsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	return nonNil(debts), nil
}

func (s *LedgerService) CreateSavingGoal(ctx context.Context, userID int64, g core.SavingGoal) (core.SavingGoal, error) {
	g.UserID = userID
	if err := g.Validate(); err != nil {
		return core.SavingGoal{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	created, err := s.store.Queries().CreateSavingGoal(ctx, g)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	logger.InfoContext(ctx, "Saving goal created", applog.FieldUserID, userID, applog.FieldGoalID, created.ID)
	return created, nil
}

func (s *LedgerService) ListSavingGoals(ctx context.Context, userID int64) ([]core.SavingGoal, error) {
	goals, err := s.store.Queries().ListSavingGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	return nonNil(goals), nil
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
