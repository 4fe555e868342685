package worker

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

var logger = applog.Component(applog.ComponentWorker)

// Scanner is the part of services.RecurringService the worker drives.
type Scanner interface {
	Scan(ctx context.Context, userID int64) ([]core.RecurringExpense, error)
	ScanAll(ctx context.Context) (int, error)
}

// RecurringWorker rescans a user's history whenever they post a transaction,
// and sweeps all users on an interval to cover events it never saw.
type RecurringWorker struct {
	scanner  Scanner
	interval time.Duration
}

func NewRecurringWorker(scanner Scanner, interval time.Duration) *RecurringWorker {
	return &RecurringWorker{scanner: scanner, interval: interval}
}

// HandleEvent processes a single ledger event from AMQP. Returning an error
// makes the consumer requeue the event once.
func (w *RecurringWorker) HandleEvent(ctx context.Context, evt *amqp.LedgerEvent) error {
	if evt.Type != amqp.EventTransactionPosted {
		logger.DebugContext(ctx, "Ignoring ledger event", applog.FieldEventType, evt.Type)
		return nil
	}

	created, err := w.scanner.Scan(ctx, evt.UserID)
	if err != nil {
		return fmt.Errorf("scan user %d: %w", evt.UserID, err)
	}
	if len(created) > 0 {
		logger.InfoContext(ctx, "New recurring expenses detected",
			applog.FieldUserID, evt.UserID,
			"count", len(created))
	}
	return nil
}

// RunSweep blocks until ctx is done, scanning every user on each tick.
func (w *RecurringWorker) RunSweep(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			created, err := w.scanner.ScanAll(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.ErrorContext(ctx, "Recurring sweep failed", "error", err)
				}
				continue
			}
			logger.InfoContext(ctx, "Recurring sweep complete",
				"created", created,
				"next_check", now.Add(w.interval).Format(time.RFC3339))
		}
	}
}
