package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Reasons carried by SnapshotChangedMessage.
const (
	ReasonTransactionCreated = "transaction_created"
	ReasonTransactionDeleted = "transaction_deleted"
	ReasonBudgetCreated      = "budget_created"
	ReasonBudgetUpdated      = "budget_updated"
	ReasonProfileUpdated     = "profile_updated"
)

// SnapshotChangedMessage tells consumers that an owner's records changed.
// It carries no record data; consumers reload the full snapshot.
type SnapshotChangedMessage struct {
	OwnerID   string    `json:"owner_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSnapshotChangedMessage creates a message stamped with the current time
func NewSnapshotChangedMessage(ownerID, reason string) *SnapshotChangedMessage {
	return &SnapshotChangedMessage{
		OwnerID:   ownerID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotChangedMessageFromJSON decodes a message and rejects one without an owner.
func SnapshotChangedMessageFromJSON(data []byte) (*SnapshotChangedMessage, error) {
	var msg SnapshotChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, errors.New("snapshot changed message without owner_id")
	}
	return &msg, nil
}
