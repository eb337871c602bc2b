package amqp

import (
	"encoding/json"
	"time"
)

// Ledger update actions published by the message-processing backend.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerUpdateMessage tells the sync worker that a user's ledger
// changed server-side. It carries only identifiers; the worker
// refetches through the gateway so the API stays the single source
// of truth.
type LedgerUpdateMessage struct {
	UserID    int64     `json:"user_id"`
	EntryID   string    `json:"entry_id,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerUpdateMessage creates an update notification for one entry.
func NewLedgerUpdateMessage(userID int64, entryID, action string) *LedgerUpdateMessage {
	return &LedgerUpdateMessage{
		UserID:    userID,
		EntryID:   entryID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerUpdateMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerUpdateMessageFromJSON creates a message from JSON bytes
func LedgerUpdateMessageFromJSON(data []byte) (*LedgerUpdateMessage, error) {
	var msg LedgerUpdateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
