package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message types carried in the AMQP Type header and in the body.
const (
	TypeTransactionRecorded = "transaction.recorded"
	TypeLedgerReplaced      = "ledger.replaced"
)

// Message tells the mirror worker that the ledger changed. It carries ids
// only; the worker reads the data back from SQLite.
type Message struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Records       int       `json:"records,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionRecordedMessage announces one appended row.
func NewTransactionRecordedMessage(transactionID int64) *Message {
	return &Message{
		ID:            uuid.NewString(),
		Type:          TypeTransactionRecorded,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// NewLedgerReplacedMessage announces a full overwrite of the ledger.
func NewLedgerReplacedMessage(records int) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      TypeLedgerReplaced,
		Records:   records,
		Timestamp: time.Now(),
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes and validates a message body.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case TypeTransactionRecorded:
		if msg.TransactionID <= 0 {
			return nil, fmt.Errorf("%s message without transaction id", msg.Type)
		}
	case TypeLedgerReplaced:
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return &msg, nil
}
