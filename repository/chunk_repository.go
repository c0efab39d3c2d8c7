package repository

import (
	"context"

	"docchat-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkRepository handles database operations for retrieved source chunks
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// CreateBatch stores the retrieval results attached to one message,
// preserving the order the retrieval system returned them in
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []models.SourceChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	query := `
		INSERT INTO message_chunks (
			message_id, chunk_index, source_id, source_title, source_type,
			excerpt, score, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	for i := range chunks {
		chunk := &chunks[i]
		err := r.db.QueryRow(
			ctx, query,
			chunk.MessageID,
			chunk.ChunkIndex,
			chunk.SourceID,
			chunk.SourceTitle,
			chunk.SourceType,
			chunk.Excerpt,
			chunk.Score,
			chunk.Metadata,
		).Scan(&chunk.ID)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListByMessageID retrieves a message's chunks ordered by chunk index, so
// citation ordinals resolve against the same order the producer saw
func (r *ChunkRepository) ListByMessageID(ctx context.Context, messageID uuid.UUID) ([]models.SourceChunk, error) {
	query := `
		SELECT id, message_id, chunk_index, source_id, source_title, source_type,
			excerpt, score, metadata
		FROM message_chunks
		WHERE message_id = $1
		ORDER BY chunk_index ASC`

	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.SourceChunk
	for rows.Next() {
		chunk := models.SourceChunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.MessageID,
			&chunk.ChunkIndex,
			&chunk.SourceID,
			&chunk.SourceTitle,
			&chunk.SourceType,
			&chunk.Excerpt,
			&chunk.Score,
			&chunk.Metadata,
		)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}
