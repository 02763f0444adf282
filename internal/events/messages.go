package events

import (
	"encoding/json"
	"time"
)

// TransactionSplitMessage announces a completed split: the parent was reduced
// and the children exist. Consumers fetch full transactions from the store.
type TransactionSplitMessage struct {
	ParentID  string    `json:"parentId"`
	ChildIDs  []string  `json:"childIds"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSplitMessage(parentID string, childIDs []string) *TransactionSplitMessage {
	return &TransactionSplitMessage{
		ParentID:  parentID,
		ChildIDs:  childIDs,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionSplitMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSplitMessageFromJSON creates a message from JSON bytes
func TransactionSplitMessageFromJSON(data []byte) (*TransactionSplitMessage, error) {
	var msg TransactionSplitMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TransactionSharedMessage announces a committed apportionment.
type TransactionSharedMessage struct {
	TransactionID string    `json:"transactionId"`
	PersonalCents int64     `json:"personalCents"`
	OwedCents     int64     `json:"owedCents"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionSharedMessage(transactionID string, personalCents, owedCents int64) *TransactionSharedMessage {
	return &TransactionSharedMessage{
		TransactionID: transactionID,
		PersonalCents: personalCents,
		OwedCents:     owedCents,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionSharedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSharedMessageFromJSON creates a message from JSON bytes
func TransactionSharedMessageFromJSON(data []byte) (*TransactionSharedMessage, error) {
	var msg TransactionSharedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
