package amqp

import (
	"encoding/json"
	"time"

	"dompet/internal/store"
)

// ChangeMessage announces that one user's collection changed. It carries
// no document payload: consumers re-read the collection from the store,
// matching the snapshot-replacement contract of the sync layer.
type ChangeMessage struct {
	UserID     string           `json:"user_id"`
	Collection store.Collection `json:"collection"`
	Timestamp  time.Time        `json:"timestamp"`
}

func NewChangeMessage(userID string, c store.Collection) *ChangeMessage {
	return &ChangeMessage{
		UserID:     userID,
		Collection: c,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Valid reports whether the message names a known collection and a user.
func (m *ChangeMessage) Valid() bool {
	if m.UserID == "" {
		return false
	}
	for _, c := range store.Collections {
		if m.Collection == c {
			return true
		}
	}
	return false
}
