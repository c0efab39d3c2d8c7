package models

import (
	"github.com/google/uuid"
)

// SourceChunk represents one retrieval result unit returned by the external
// vector search for a message: a scored excerpt of a source document.
// Chunks are stored in the order the retrieval system returned them; that
// order is what citation ordinals in generated prose refer to.
type SourceChunk struct {
	ID          uuid.UUID              `json:"id"`
	MessageID   uuid.UUID              `json:"message_id"`
	ChunkIndex  int                    `json:"chunk_index"`
	SourceID    string                 `json:"source_id"`
	SourceTitle string                 `json:"source_title"`
	SourceType  string                 `json:"source_type"` // "document", "report", "web"
	Excerpt     string                 `json:"excerpt"`
	Score       *float64               `json:"score,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
