package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 64 << 10

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// flexibleDate accepts a calendar date or an RFC 3339 timestamp.
type flexibleDate struct {
	time.Time
}

func (d *flexibleDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}

// amount accepts a JSON number or a string using either decimal separator.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d, err := core.ParseAmount(s)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		a.Decimal = d
		return nil
	}
	return a.Decimal.UnmarshalJSON(data)
}

// Owner fields are not part of any request: the user comes from the header.
type transactionRequest struct {
	Amount       amount               `json:"amount"`
	Type         core.TransactionKind `json:"type"`
	Category     string               `json:"category"`
	Description  string               `json:"description"`
	Date         *flexibleDate        `json:"date"`
	DebtID       *int64               `json:"debt_id"`
	SavingGoalID *int64               `json:"saving_goal_id"`
}

func (req transactionRequest) toInput() core.TransactionInput {
	in := core.TransactionInput{
		Amount:       req.Amount.Decimal,
		Kind:         core.TransactionKind(strings.ToLower(strings.TrimSpace(string(req.Type)))),
		Category:     sanitizeInput(req.Category),
		Description:  sanitizeInput(req.Description),
		DebtID:       req.DebtID,
		SavingGoalID: req.SavingGoalID,
	}
	if req.Date != nil {
		in.OccurredAt = req.Date.Time
	}
	return in
}

type categoryRequest struct {
	Name        string          `json:"name"`
	LimitAmount decimal.Decimal `json:"limit_amount"`
	Icon        string          `json:"icon"`
}

func (req categoryRequest) toCategory() core.BudgetCategory {
	return core.BudgetCategory{
		Name:        sanitizeInput(req.Name),
		LimitAmount: req.LimitAmount,
		Icon:        sanitizeInput(req.Icon),
	}
}

type debtRequest struct {
	Name           string          `json:"name"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MinPayment     decimal.Decimal `json:"min_payment"`
}

func (req debtRequest) toDebt() core.Debt {
	return core.Debt{
		Name:           sanitizeInput(req.Name),
		TotalAmount:    req.TotalAmount,
		CurrentBalance: req.CurrentBalance,
		InterestRate:   req.InterestRate,
		MinPayment:     req.MinPayment,
	}
}

type goalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *flexibleDate   `json:"deadline"`
}

func (req goalRequest) toGoal() core.SavingGoal {
	g := core.SavingGoal{
		Name:          sanitizeInput(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
	}
	if req.Deadline != nil && !req.Deadline.IsZero() {
		deadline := req.Deadline.Time
		g.Deadline = &deadline
	}
	return g
}

// pathID reads a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, r.PathValue(name))
	}
	return id, nil
}
