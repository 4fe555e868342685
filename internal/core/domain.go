package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	// Monthly is the only frequency the detector currently emits.
	Monthly Frequency = "monthly"
)

type (
	TransactionKind string

	Frequency string

	// TransactionInput is what a caller submits when posting a transaction.
	// Ownership is never taken from the input.
	TransactionInput struct {
		Amount       decimal.Decimal
		Kind         TransactionKind
		Category     string
		Description  string
		OccurredAt   time.Time
		DebtID       *int64
		SavingGoalID *int64
	}

	Transaction struct {
		ID           int64           `json:"id"`
		UserID       int64           `json:"user_id"`
		Amount       decimal.Decimal `json:"amount"`
		Kind         TransactionKind `json:"type"`
		Category     string          `json:"category"`
		Description  string          `json:"description"`
		OccurredAt   time.Time       `json:"date"`
		DebtID       *int64          `json:"debt_id,omitempty"`
		SavingGoalID *int64          `json:"saving_goal_id,omitempty"`
	}

	BudgetCategory struct {
		ID             int64           `json:"id"`
		UserID         int64           `json:"user_id"`
		Name           string          `json:"name"`
		LimitAmount    decimal.Decimal `json:"limit_amount"`
		SpentAmount    decimal.Decimal `json:"spent_amount"`
		RolloverAmount decimal.Decimal `json:"rollover_amount"`
		Icon           string          `json:"icon"`
	}

	Debt struct {
		ID             int64           `json:"id"`
		UserID         int64           `json:"user_id"`
		Name           string          `json:"name"`
		TotalAmount    decimal.Decimal `json:"total_amount"`
		CurrentBalance decimal.Decimal `json:"current_balance"`
		InterestRate   decimal.Decimal `json:"interest_rate"` // annual, in percent
		MinPayment     decimal.Decimal `json:"min_payment"`
	}

	SavingGoal struct {
		ID            int64           `json:"id"`
		UserID        int64           `json:"user_id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		Deadline      *time.Time      `json:"deadline,omitempty"`
	}

	RecurringExpense struct {
		ID              int64           `json:"id"`
		UserID          int64           `json:"user_id"`
		Name            string          `json:"name"`
		NormalizedName  string          `json:"-"`
		Amount          decimal.Decimal `json:"amount"`
		Frequency       Frequency       `json:"frequency"`
		DetectedDay     int             `json:"detected_day"`
		ConfidenceScore float64         `json:"confidence_score"`
		IsConfirmed     bool            `json:"is_confirmed"`
		IsIgnored       bool            `json:"is_ignored"`
		LastChargedAt   time.Time       `json:"last_charged_date"`
	}
)

var (
	// ErrNotFound covers both a missing record and one owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAction is returned for any disposition other than confirm or ignore.
	ErrInvalidAction = errors.New("invalid action")
	// ErrStoreFailure marks an operation whose atomic unit could not be committed.
	ErrStoreFailure = errors.New("store failure")
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
)

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

func (in TransactionInput) Validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !in.Kind.Valid() {
		return ErrInvalidKind
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(in.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.LimitAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if d.TotalAmount.IsNegative() || d.CurrentBalance.IsNegative() || d.MinPayment.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (g SavingGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() || g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
