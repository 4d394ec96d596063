package amqp

import (
	"encoding/json"
	"time"
)

// DealSyncMessage asks the export worker to push one deal to the report
// sheet. It carries only the ID and version; the worker fetches the full
// row from storage so the queue never holds stale field values.
type DealSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDealSyncMessage creates a new sync message with just ID and version.
func NewDealSyncMessage(id string, version int64) *DealSyncMessage {
	return &DealSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *DealSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DealSyncMessageFromJSON creates a message from JSON bytes.
func DealSyncMessageFromJSON(data []byte) (*DealSyncMessage, error) {
	var msg DealSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
