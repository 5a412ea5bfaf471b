package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerChangeMessage announces that the ledger was mutated and persisted.
// It carries no record data; consumers reload the ledger if they need it.
type LedgerChangeMessage struct {
	ID        uuid.UUID `json:"id"`
	Entity    string    `json:"entity"`
	Operation string    `json:"operation"`
	Index     int       `json:"index,omitempty"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage creates a change message with a fresh ID.
func NewLedgerChangeMessage(entity, operation string, index int, revision int64) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		ID:        uuid.New(),
		Entity:    entity,
		Operation: operation,
		Index:     index,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON creates a message from JSON bytes
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
