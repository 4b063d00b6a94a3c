package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind names what happened to a ledger record.
type EventKind string

const (
	ExpenseCreated     EventKind = "expense.created"
	ExpenseUpdated     EventKind = "expense.updated"
	ExpensePaidToggled EventKind = "expense.paid_toggled"
	PaycheckCreated    EventKind = "paycheck.created"
)

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	switch k {
	case ExpenseCreated, ExpenseUpdated, ExpensePaidToggled, PaycheckCreated:
		return true
	}
	return false
}

// IsExpense reports whether the record behind k is an expense.
func (k EventKind) IsExpense() bool {
	return k == ExpenseCreated || k == ExpenseUpdated || k == ExpensePaidToggled
}

// LedgerEvent is a lightweight notification. Consumers load the record
// from storage by RecordID.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	RecordID  int64     `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, recordID int64) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		RecordID:  recordID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and validates a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if msg.RecordID <= 0 {
		return nil, fmt.Errorf("invalid record id %d", msg.RecordID)
	}
	return &msg, nil
}
