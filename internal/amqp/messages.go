package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventTransactionPosted EventType = "transaction.posted"
	EventRecurringDetected EventType = "recurring.detected"
	EventPeriodClosed      EventType = "period.closed"
)

// LedgerEvent announces a committed ledger change. It carries only
// identifiers; consumers reload whatever state they need from the store.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	UserID    int64     `json:"user_id"`
	EntityID  int64     `json:"entity_id,omitempty"`
	Period    string    `json:"period,omitempty"`
	Count     int       `json:"count,omitempty"` // categories rolled over, on period.closed
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(typ EventType, userID, entityID int64) *LedgerEvent {
	return &LedgerEvent{
		Type:      typ,
		UserID:    userID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var evt LedgerEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if evt.Type == "" {
		return nil, fmt.Errorf("ledger event: missing type")
	}
	if evt.UserID <= 0 {
		return nil, fmt.Errorf("ledger event %s: invalid user id %d", evt.Type, evt.UserID)
	}
	return &evt, nil
}
