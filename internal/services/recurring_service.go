package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

var recurringLog = applog.Component(applog.ComponentRecurring)

// RecurringService turns a user's transaction history into recurring
// expense records and records the user's disposition on them.
type RecurringService struct {
	store     Store
	publisher EventPublisher
	cadence   CadenceRule
}

func NewRecurringService(store Store, publisher EventPublisher) *RecurringService {
	return &RecurringService{
		store:     store,
		publisher: publisher,
		cadence:   MonthlyCadence{},
	}
}

// Scan detects patterns in the user's history and stores the ones that are
// not yet recorded, matching on normalized name. Existing records, including
// ignored ones, are never duplicated or modified. It returns only the new
// records; all of them are stored or none are.
func (s *RecurringService) Scan(ctx context.Context, userID int64) ([]core.RecurringExpense, error) {
	history, err := s.store.Queries().ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %w", core.ErrStoreFailure, err)
	}

	candidates := DetectRecurring(userID, history, s.cadence)
	if len(candidates) == 0 {
		return []core.RecurringExpense{}, nil
	}

	var created []core.RecurringExpense
	err = s.store.WithTx(ctx, func(q *storage.Queries) error {
		created = created[:0]
		for _, c := range candidates {
			exists, err := q.RecurringExpenseExists(ctx, userID, c.NormalizedName)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			re, err := q.CreateRecurringExpense(ctx, c)
			if errors.Is(err, storage.ErrDuplicate) {
				// A concurrent scan got there first.
				recurringLog.DebugContext(ctx, "Recurring pattern already recorded",
					applog.FieldUserID, userID, "name", c.NormalizedName)
				continue
			}
			if err != nil {
				return err
			}
			created = append(created, re)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan recurring: %w", err)
	}

	recurringLog.InfoContext(ctx, "Recurring scan complete",
		applog.FieldUserID, userID,
		"candidates", len(candidates),
		"created", len(created))

	for _, re := range created {
		publish(ctx, s.publisher, amqp.NewLedgerEvent(amqp.EventRecurringDetected, userID, re.ID))
	}
	return nonNil(created), nil
}

// List returns every recurring expense of the user, ignored ones included.
func (s *RecurringService) List(ctx context.Context, userID int64) ([]core.RecurringExpense, error) {
	list, err := s.store.Queries().ListRecurringExpensesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	return nonNil(list), nil
}

// Respond applies confirm or ignore to one of the user's recurring expenses.
// A record owned by someone else is reported as not found.
func (s *RecurringService) Respond(ctx context.Context, userID, id int64, action string) (core.RecurringExpense, error) {
	var (
		updated core.RecurringExpense
		act     core.RecurringAction
	)
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		re, err := q.GetRecurringExpense(ctx, id)
		if err != nil {
			return err
		}
		if re.UserID != userID {
			return fmt.Errorf("recurring expense %d: %w", id, core.ErrNotFound)
		}
		// Ownership is checked before the action is validated.
		act, err = core.ParseRecurringAction(action)
		if err != nil {
			return err
		}
		if err := act.Apply(&re); err != nil {
			return err
		}
		if err := q.UpdateRecurringDisposition(ctx, re); err != nil {
			return err
		}
		updated = re
		return nil
	})
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("respond to recurring %d: %w", id, err)
	}

	recurringLog.InfoContext(ctx, "Recurring expense updated",
		applog.FieldUserID, userID,
		"recurring_id", id,
		"action", act)
	return updated, nil
}

// ScanAll scans every user with transactions and returns how many records were
// created. A failing user is logged and skipped.
func (s *RecurringService) ScanAll(ctx context.Context) (int, error) {
	users, err := s.store.Queries().ListTransactionUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}

	total := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		created, err := s.Scan(ctx, userID)
		if err != nil {
			recurringLog.ErrorContext(ctx, "Recurring scan failed", applog.FieldUserID, userID, "error", err)
			continue
		}
		total += len(created)
	}
	return total, nil
}
