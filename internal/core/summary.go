package core

import "github.com/shopspring/decimal"

const (
	StatusNormal   StatusLevel = "normal"
	StatusWarning  StatusLevel = "warning"
	StatusCritical StatusLevel = "critical"
)

var (
	warningThreshold  = decimal.NewFromInt(85)
	criticalThreshold = decimal.NewFromInt(100)
	monthsPerYear     = decimal.NewFromInt(12)
)

type StatusLevel string

// ClosureRow reports one category closed by a month close.
type ClosureRow struct {
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	SpentAmount decimal.Decimal `json:"spent_amount"`
	NewRollover decimal.Decimal `json:"new_rollover"`
}

// AccrualRow reports interest added to one debt. Both amounts are rounded to cents.
type AccrualRow struct {
	DebtID     int64           `json:"debt_id"`
	Name       string          `json:"name"`
	Interest   decimal.Decimal `json:"interest"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// StatusRow is one line of the budget status report.
type StatusRow struct {
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	SpentAmount decimal.Decimal `json:"spent_amount"`
	TotalLimit  decimal.Decimal `json:"total_limit"`
	Percentage  decimal.Decimal `json:"percentage"`
	Status      StatusLevel     `json:"status"`
}

// CloseCategory carries the unspent part of limit+rollover into the next
// period and resets spending. Deficits never become negative rollover.
func CloseCategory(c BudgetCategory) (BudgetCategory, ClosureRow) {
	remaining := c.LimitAmount.Add(c.RolloverAmount).Sub(c.SpentAmount)
	rollover := decimal.Max(remaining, decimal.Zero)

	row := ClosureRow{
		CategoryID:  c.ID,
		Name:        c.Name,
		SpentAmount: c.SpentAmount,
		NewRollover: rollover,
	}

	c.RolloverAmount = rollover
	c.SpentAmount = decimal.Zero
	return c, row
}

// AccrueInterest applies one month of interest. ok is false when the debt has
// nothing to accrue on (zero balance or non-positive rate).
func AccrueInterest(d Debt) (updated Debt, row AccrualRow, ok bool) {
	if !d.CurrentBalance.IsPositive() || !d.InterestRate.IsPositive() {
		return d, AccrualRow{}, false
	}
	monthlyRate := d.InterestRate.Div(monthsPerYear)
	interest := d.CurrentBalance.Mul(monthlyRate).Div(hundred)
	d.CurrentBalance = d.CurrentBalance.Add(interest)

	return d, AccrualRow{
		DebtID:     d.ID,
		Name:       d.Name,
		Interest:   RoundMoney(interest),
		NewBalance: RoundMoney(d.CurrentBalance),
	}, true
}

// ApplyPayment subtracts a payment from a debt, clamping at zero.
func ApplyPayment(d Debt, amount decimal.Decimal) Debt {
	d.CurrentBalance = decimal.Max(d.CurrentBalance.Sub(amount), decimal.Zero)
	return d
}

// ClassifyBudget computes a status row. ok is false for categories whose
// limit plus rollover is not positive; those are left out of the report.
func ClassifyBudget(c BudgetCategory) (StatusRow, bool) {
	total := c.LimitAmount.Add(c.RolloverAmount)
	if !total.IsPositive() {
		return StatusRow{}, false
	}
	pct := Percent(c.SpentAmount, total)

	level := StatusNormal
	switch {
	case pct.GreaterThanOrEqual(criticalThreshold):
		level = StatusCritical
	case pct.GreaterThanOrEqual(warningThreshold):
		level = StatusWarning
	}

	return StatusRow{
		CategoryID:  c.ID,
		Name:        c.Name,
		SpentAmount: c.SpentAmount,
		TotalLimit:  total,
		Percentage:  pct.Round(2),
		Status:      level,
	}, true
}
