package amqp

import (
	"encoding/json"
	"time"
)

// CategoryChangeMessage tells peer instances that one category changed
// upstream. It carries only the identifier and operation; consumers
// refetch the authoritative tree rather than trusting the payload.
type CategoryChangeMessage struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCategoryChangeMessage(id, op string) *CategoryChangeMessage {
	return &CategoryChangeMessage{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *CategoryChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func CategoryChangeMessageFromJSON(data []byte) (*CategoryChangeMessage, error) {
	var msg CategoryChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
