package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

// Store is the persistence surface the services need. *storage.SQLiteRepository
// satisfies it.
type Store interface {
	Queries() *storage.Queries
	WithTx(ctx context.Context, fn func(q *storage.Queries) error) error
}

// EventPublisher announces committed changes. A nil publisher disables events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, evt *amqp.LedgerEvent) error
}

func publish(ctx context.Context, pub EventPublisher, evt *amqp.LedgerEvent) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, evt); err != nil {
		// The change is already committed; delivery is best effort.
		logger.ErrorContext(ctx, "Failed to publish ledger event",
			"type", evt.Type,
			"user_id", evt.UserID,
			"entity_id", evt.EntityID,
			"error", err)
	}
}
