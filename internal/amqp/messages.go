package amqp

import (
	"encoding/json"
	"time"
)

// MovementSyncMessage asks the export worker to sync one settled movement.
// It carries only the entry id; the worker loads the current state from
// storage, so a stale message can never overwrite newer data.
type MovementSyncMessage struct {
	EntryID   string    `json:"entry_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMovementSyncMessage(entryID string) *MovementSyncMessage {
	return &MovementSyncMessage{
		EntryID:   entryID,
		Timestamp: time.Now(),
	}
}

func (m *MovementSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MovementSyncMessageFromJSON(data []byte) (*MovementSyncMessage, error) {
	var msg MovementSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
