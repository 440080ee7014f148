package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Channel names
const (
	UserCreated = "user.created"
)

// Event is the envelope every message is published in.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Decode copies the event payload into v.
func (e Event) Decode(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

type UserCreatedEvent struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}
