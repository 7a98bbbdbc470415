// Package events publishes ledger change notifications to a message broker.
package events

import (
	"encoding/json"
	"time"

	"dompet/internal/money"
)

// Type names a ledger event. It doubles as the AMQP routing key.
type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionUpdated Type = "transaction.updated"
	TransactionDeleted Type = "transaction.deleted"
)

// Event is the JSON body published for every committed ledger write.
type Event struct {
	Type            Type         `json:"type"`
	TransactionID   string       `json:"transaction_id"`
	UserID          string       `json:"user_id"`
	TotalAmount     money.Amount `json:"total_amount"`
	TransactionDate time.Time    `json:"transaction_date"`
	OccurredAt      time.Time    `json:"occurred_at"`
}

// ToJSON encodes the event body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event body.
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
