package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

const periodLayout = "2006-01"

// PeriodProcessor closes the previous calendar month for every user once:
// it rolls budgets over and accrues debt interest in one transaction per user.
type PeriodProcessor struct {
	store     Store
	publisher EventPublisher
	onClosed  func(userID int64)
}

func NewPeriodProcessor(store Store, publisher EventPublisher) *PeriodProcessor {
	return &PeriodProcessor{store: store, publisher: publisher}
}

// OnPeriodClosed registers fn to run after a user's close commits. The HTTP
// server uses it to drop cached budget status.
func (p *PeriodProcessor) OnPeriodClosed(fn func(userID int64)) {
	p.onClosed = fn
}

// PreviousPeriod labels the calendar month before now, in UTC.
func PreviousPeriod(now time.Time) string {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0).Format(periodLayout)
}

type periodOutcome int

type periodResult struct {
	outcome    periodOutcome
	categories int
}

const (
	periodSkipped periodOutcome = iota
	periodBaseline
	periodClosed
)

// ProcessDuePeriods handles every ledger user and returns how many had their
// period closed. A user seen for the first time only gets a baseline entry,
// so a budget created mid-month is not reset until the next boundary.
// Failures for one user are logged and do not stop the others.
func (p *PeriodProcessor) ProcessDuePeriods(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	period := PreviousPeriod(now)
	users, err := p.store.Queries().ListLedgerUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ledger users: %w", err)
	}

	periodLog.InfoContext(ctx, "Processing period close",
		applog.FieldPeriod, period,
		"users", len(users))

	closedCount := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return closedCount, err
		}

		res, err := p.processUser(ctx, userID, period, now)
		if err != nil {
			periodLog.ErrorContext(ctx, "Failed to close period",
				applog.FieldUserID, userID,
				applog.FieldPeriod, period,
				"error", err)
			continue
		}
		if res.outcome != periodClosed {
			continue
		}

		closedCount++
		if p.onClosed != nil {
			p.onClosed(userID)
		}
		evt := amqp.NewLedgerEvent(amqp.EventPeriodClosed, userID, 0)
		evt.Period = period
		evt.Count = res.categories
		publish(ctx, p.publisher, evt)
	}

	periodLog.InfoContext(ctx, "Period close complete",
		applog.FieldPeriod, period,
		"closed", closedCount,
		"total_checked", len(users))

	return closedCount, nil
}

func (p *PeriodProcessor) processUser(ctx context.Context, userID int64, period string, now time.Time) (periodResult, error) {
	var res periodResult
	err := p.store.WithTx(ctx, func(q *storage.Queries) error {
		res = periodResult{outcome: periodSkipped}
		done, err := q.PeriodClosed(ctx, userID, period)
		if err != nil || done {
			return err
		}

		seen, err := q.HasPeriodClosures(ctx, userID)
		if err != nil {
			return err
		}
		if !seen {
			res.outcome = periodBaseline
			return q.RecordPeriodClosure(ctx, userID, period, now, false)
		}

		closures, err := closeCategories(ctx, q, userID)
		if err != nil {
			return err
		}
		accruals, err := accrueInterest(ctx, q, userID)
		if err != nil {
			return err
		}
		if err := q.RecordPeriodClosure(ctx, userID, period, now, true); err != nil {
			return err
		}

		res = periodResult{outcome: periodClosed, categories: len(closures)}
		periodLog.InfoContext(ctx, "Closed period for user",
			applog.FieldUserID, userID,
			applog.FieldPeriod, period,
			"categories", len(closures),
			"debts", len(accruals))
		return nil
	})
	if errors.Is(err, storage.ErrDuplicate) {
		// Another processor recorded the period between the check and the insert.
		return periodResult{outcome: periodSkipped}, nil
	}
	return res, err
}

// Run processes once at startup and then on every tick until ctx is done.
func (p *PeriodProcessor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	periodLog.InfoContext(ctx, "Period processor started", "interval", interval)
	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			periodLog.InfoContext(ctx, "Period processor stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *PeriodProcessor) tick(ctx context.Context) {
	if _, err := p.ProcessDuePeriods(ctx, time.Now()); err != nil && ctx.Err() == nil {
		periodLog.ErrorContext(ctx, "Period processing failed", "error", err)
	}
}
