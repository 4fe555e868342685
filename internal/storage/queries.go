package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the per-entity primitives: insert, get by id, query by owner
// and the updates the ledger applies. Bind it to a transaction with WithTx.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error, entity string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s %v: %w", entity, id, err)
}

func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// --- transactions ---

const transactionColumns = `id, user_id, amount, kind, category, description, occurred_at, debt_id, saving_goal_id`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		kind       string
		debtID     sql.NullInt64
		goalID     sql.NullInt64
		occurredAt time.Time
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Amount, &kind, &t.Category, &t.Description, &occurredAt, &debtID, &goalID); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.TransactionKind(kind)
	t.OccurredAt = occurredAt.UTC()
	t.DebtID = nullableID(debtID)
	t.SavingGoalID = nullableID(goalID)
	return t, nil
}

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	const query = `
		INSERT INTO transactions (user_id, amount, kind, category, description, occurred_at, debt_id, saving_goal_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	t.OccurredAt = t.OccurredAt.UTC()
	err := q.db.QueryRowContext(ctx, query,
		t.UserID, t.Amount, string(t.Kind), t.Category, t.Description, t.OccurredAt, t.DebtID, t.SavingGoalID,
	).Scan(&t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY occurred_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListTransactionUsers returns every user with at least one transaction.
func (q *Queries) ListTransactionUsers(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list transaction users: %w", err)
	}
	defer rows.Close()
	return scanUserIDs(rows)
}

// --- budget categories ---

const categoryColumns = `id, user_id, name, limit_amount, spent_amount, rollover_amount, icon`

func scanCategory(s rowScanner) (core.BudgetCategory, error) {
	var c core.BudgetCategory
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.LimitAmount, &c.SpentAmount, &c.RolloverAmount, &c.Icon)
	return c, err
}

func (q *Queries) CreateBudgetCategory(ctx context.Context, c core.BudgetCategory) (core.BudgetCategory, error) {
	const query = `
		INSERT INTO budget_categories (user_id, name, limit_amount, spent_amount, rollover_amount, icon)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := q.db.QueryRowContext(ctx, query,
		c.UserID, c.Name, c.LimitAmount, c.SpentAmount, c.RolloverAmount, c.Icon,
	).Scan(&c.ID)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("insert budget category: %w", err)
	}
	return c, nil
}

// GetBudgetCategoryByName matches the name exactly. With duplicates the
// oldest category wins.
func (q *Queries) GetBudgetCategoryByName(ctx context.Context, userID int64, name string) (core.BudgetCategory, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM budget_categories WHERE user_id = ? AND name = ? ORDER BY id LIMIT 1`,
		userID, name)
	c, err := scanCategory(row)
	if err != nil {
		return core.BudgetCategory{}, notFound(err, "budget category", name)
	}
	return c, nil
}

func (q *Queries) ListBudgetCategoriesByUser(ctx context.Context, userID int64) ([]core.BudgetCategory, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM budget_categories WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget categories: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateBudgetCategoryAmounts(ctx context.Context, c core.BudgetCategory) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE budget_categories SET spent_amount = ?, rollover_amount = ? WHERE id = ?`,
		c.SpentAmount, c.RolloverAmount, c.ID)
	if err != nil {
		return fmt.Errorf("update budget category %d: %w", c.ID, err)
	}
	return nil
}

// --- debts ---

const debtColumns = `id, user_id, name, total_amount, current_balance, interest_rate, min_payment`

func scanDebt(s rowScanner) (core.Debt, error) {
	var d core.Debt
	err := s.Scan(&d.ID, &d.UserID, &d.Name, &d.TotalAmount, &d.CurrentBalance, &d.InterestRate, &d.MinPayment)
	return d, err
}

func (q *Queries) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	const query = `
		INSERT INTO debts (user_id, name, total_amount, current_balance, interest_rate, min_payment)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := q.db.QueryRowContext(ctx, query,
		d.UserID, d.Name, d.TotalAmount, d.CurrentBalance, d.InterestRate, d.MinPayment,
	).Scan(&d.ID)
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}
	return d, nil
}

func (q *Queries) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	d, err := scanDebt(q.db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id))
	if err != nil {
		return core.Debt{}, notFound(err, "debt", id)
	}
	return d, nil
}

func (q *Queries) ListDebtsByUser(ctx context.Context, userID int64) ([]core.Debt, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateDebtBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	if _, err := q.db.ExecContext(ctx, `UPDATE debts SET current_balance = ? WHERE id = ?`, balance, id); err != nil {
		return fmt.Errorf("update debt %d: %w", id, err)
	}
	return nil
}

// --- saving goals ---

const goalColumns = `id, user_id, name, target_amount, current_amount, deadline`

func scanGoal(s rowScanner) (core.SavingGoal, error) {
	var (
		g        core.SavingGoal
		deadline sql.NullTime
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &deadline); err != nil {
		return core.SavingGoal{}, err
	}
	if deadline.Valid {
		t := deadline.Time.UTC()
		g.Deadline = &t
	}
	return g, nil
}

func (q *Queries) CreateSavingGoal(ctx context.Context, g core.SavingGoal) (core.SavingGoal, error) {
	const query = `
		INSERT INTO saving_goals (user_id, name, target_amount, current_amount, deadline)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`

	err := q.db.QueryRowContext(ctx, query,
		g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, g.Deadline,
	).Scan(&g.ID)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("insert saving goal: %w", err)
	}
	return g, nil
}

func (q *Queries) GetSavingGoal(ctx context.Context, id int64) (core.SavingGoal, error) {
	g, err := scanGoal(q.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM saving_goals WHERE id = ?`, id))
	if err != nil {
		return core.SavingGoal{}, notFound(err, "saving goal", id)
	}
	return g, nil
}

func (q *Queries) ListSavingGoalsByUser(ctx context.Context, userID int64) ([]core.SavingGoal, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM saving_goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saving goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saving goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateSavingGoalAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	if _, err := q.db.ExecContext(ctx, `UPDATE saving_goals SET current_amount = ? WHERE id = ?`, amount, id); err != nil {
		return fmt.Errorf("update saving goal %d: %w", id, err)
	}
	return nil
}

// --- recurring expenses ---

const recurringColumns = `id, user_id, name, normalized_name, amount, frequency, detected_day,
	confidence_score, is_confirmed, is_ignored, last_charged_at`

func scanRecurring(s rowScanner) (core.RecurringExpense, error) {
	var (
		re          core.RecurringExpense
		frequency   string
		lastCharged sql.NullTime
	)
	err := s.Scan(&re.ID, &re.UserID, &re.Name, &re.NormalizedName, &re.Amount, &frequency, &re.DetectedDay,
		&re.ConfidenceScore, &re.IsConfirmed, &re.IsIgnored, &lastCharged)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	re.Frequency = core.Frequency(frequency)
	if lastCharged.Valid {
		re.LastChargedAt = lastCharged.Time.UTC()
	}
	return re, nil
}

// CreateRecurringExpense returns ErrDuplicate when the (user, normalized name)
// pair is already recorded.
func (q *Queries) CreateRecurringExpense(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	const query = `
		INSERT INTO recurring_expenses (user_id, name, normalized_name, amount, frequency, detected_day,
			confidence_score, is_confirmed, is_ignored, last_charged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	var lastCharged any
	if !re.LastChargedAt.IsZero() {
		lastCharged = re.LastChargedAt.UTC()
	}
	err := q.db.QueryRowContext(ctx, query,
		re.UserID, re.Name, re.NormalizedName, re.Amount, string(re.Frequency), re.DetectedDay,
		re.ConfidenceScore, re.IsConfirmed, re.IsIgnored, lastCharged,
	).Scan(&re.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.RecurringExpense{}, fmt.Errorf("recurring expense %q: %w", re.NormalizedName, ErrDuplicate)
		}
		return core.RecurringExpense{}, fmt.Errorf("insert recurring expense: %w", err)
	}
	return re, nil
}

func (q *Queries) GetRecurringExpense(ctx context.Context, id int64) (core.RecurringExpense, error) {
	re, err := scanRecurring(q.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE id = ?`, id))
	if err != nil {
		return core.RecurringExpense{}, notFound(err, "recurring expense", id)
	}
	return re, nil
}

func (q *Queries) RecurringExpenseExists(ctx context.Context, userID int64, normalizedName string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM recurring_expenses WHERE user_id = ? AND normalized_name = ?`,
		userID, normalizedName).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check recurring expense %q: %w", normalizedName, err)
	}
	return n > 0, nil
}

func (q *Queries) ListRecurringExpensesByUser(ctx context.Context, userID int64) ([]core.RecurringExpense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		re, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		out = append(out, re)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateRecurringDisposition(ctx context.Context, re core.RecurringExpense) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE recurring_expenses SET is_confirmed = ?, is_ignored = ? WHERE id = ?`,
		re.IsConfirmed, re.IsIgnored, re.ID)
	if err != nil {
		return fmt.Errorf("update recurring expense %d: %w", re.ID, err)
	}
	return nil
}

// --- periods ---

// ListLedgerUsers returns every user owning a budget category or a debt.
func (q *Queries) ListLedgerUsers(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT user_id FROM budget_categories
		UNION
		SELECT user_id FROM debts
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list ledger users: %w", err)
	}
	defer rows.Close()
	return scanUserIDs(rows)
}

func scanUserIDs(rows *sql.Rows) ([]int64, error) {
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (q *Queries) PeriodClosed(ctx context.Context, userID int64, period string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM period_closures WHERE user_id = ? AND period = ?`, userID, period).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check period %s: %w", period, err)
	}
	return n > 0, nil
}

func (q *Queries) HasPeriodClosures(ctx context.Context, userID int64) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM period_closures WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check period closures: %w", err)
	}
	return n > 0, nil
}

// RecordPeriodClosure returns ErrDuplicate when the period was already recorded.
// applied is false for baseline rows that did not close anything.
func (q *Queries) RecordPeriodClosure(ctx context.Context, userID int64, period string, closedAt time.Time, applied bool) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO period_closures (user_id, period, applied, closed_at) VALUES (?, ?, ?, ?)`,
		userID, period, applied, closedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("period %s for user %d: %w", period, userID, ErrDuplicate)
		}
		return fmt.Errorf("record period closure: %w", err)
	}
	return nil
}
