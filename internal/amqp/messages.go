package amqp

import (
	"encoding/json"
	"time"

	"lavagens/internal/store"
)

// ChangeMessage notifies workers that one ledger collection changed. It
// carries only the mutation identity; consumers recompute from the store.
type ChangeMessage struct {
	Stream    store.Stream `json:"stream"`
	Op        store.Op     `json:"op"`
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewChangeMessage creates a message for one confirmed mutation.
func NewChangeMessage(c store.Change) *ChangeMessage {
	return &ChangeMessage{
		Stream:    c.Stream,
		Op:        c.Op,
		ID:        c.ID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
