package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession represents an open document-chat conversation.
// Sessions scope history loads and push subscriptions.
type ChatSession struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
