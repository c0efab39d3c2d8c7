package repository

import (
	"context"

	"docchat-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new chat message. The caller supplies the id so the
// optimistic local insert and the persisted row share one identity.
func (r *MessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, session_id, role, content, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.Status,
		msg.Metadata,
	).Scan(&msg.CreatedAt)

	return err
}

// GetByID retrieves a chat message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{}
	query := `
		SELECT id, session_id, role, content, status, metadata, created_at
		FROM chat_messages
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.SessionID,
		&msg.Role,
		&msg.Content,
		&msg.Status,
		&msg.Metadata,
		&msg.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	// Safeguard in case Scan didn't handle NULL metadata
	if msg.Metadata == nil {
		msg.Metadata = make(models.MessageMetadata)
	}

	return msg, nil
}

// ListBySessionID retrieves the full history for a session ordered by
// timestamp ascending. This is the authoritative load used on session open
// and manual refresh.
func (r *MessageRepository) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, status, metadata, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		msg := models.ChatMessage{}
		err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&msg.Status,
			&msg.Metadata,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if msg.Metadata == nil {
			msg.Metadata = make(models.MessageMetadata)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// UpdateStatus updates the delivery status of a message
func (r *MessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) error {
	query := `UPDATE chat_messages SET status = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// DeleteBySessionID deletes all messages for a session
func (r *MessageRepository) DeleteBySessionID(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM chat_messages WHERE session_id = $1`
	_, err := r.db.Exec(ctx, query, sessionID)
	return err
}
