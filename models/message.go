package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who produced a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageStatus represents the delivery status of a chat message
type MessageStatus string

const (
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// CanTransitionTo reports whether a status change is a valid transition.
// Messages only move forward: sending to delivered to read, with failed
// reachable from any non-terminal state.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	switch s {
	case MessageStatusSending:
		return next == MessageStatusDelivered || next == MessageStatusFailed
	case MessageStatusDelivered:
		return next == MessageStatusRead || next == MessageStatusFailed
	default:
		return false
	}
}

// MessageMetadata holds optional producer metadata attached to a message
type MessageMetadata map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m MessageMetadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(MessageMetadata{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *MessageMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(MessageMetadata)
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(MessageMetadata)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(MessageMetadata)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// ChatMessage represents one turn in a chat session.
// Created client-side optimistically (role=user, status=sending) or by the
// workflow callback (role=assistant). Mutated only by status transitions;
// individual messages are never deleted outside session deletion.
type ChatMessage struct {
	ID        uuid.UUID       `json:"id"`
	SessionID uuid.UUID       `json:"session_id"`
	Role      MessageRole     `json:"role"`
	Content   string          `json:"content"`
	Status    MessageStatus   `json:"status"`
	Metadata  MessageMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
