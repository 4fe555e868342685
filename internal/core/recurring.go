package core

import (
	"fmt"
	"strings"
)

const (
	ActionConfirm RecurringAction = "confirm"
	ActionIgnore  RecurringAction = "ignore"
)

// RecurringAction is a user's disposition on a detected recurring expense.
type RecurringAction string

// ParseRecurringAction validates a boundary string into a RecurringAction.
func ParseRecurringAction(s string) (RecurringAction, error) {
	switch a := RecurringAction(s); a {
	case ActionConfirm, ActionIgnore:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Apply sets the flag matching the action. Confirmed and ignored are
// independent: applying one never clears the other.
func (a RecurringAction) Apply(re *RecurringExpense) error {
	switch a {
	case ActionConfirm:
		re.IsConfirmed = true
	case ActionIgnore:
		re.IsIgnored = true
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, string(a))
	}
	return nil
}

// NormalizeDescription builds the grouping key for pattern detection.
func NormalizeDescription(desc string) string {
	return strings.ToLower(strings.TrimSpace(desc))
}
