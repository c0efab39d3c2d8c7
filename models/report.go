package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus represents the lifecycle of a drafted report
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// Report represents a document drafted by the external workflow engine.
// Content may arrive inline on the row, as a storage path into the object
// store, or as an absolute URL to be fetched lazily. Resolution order is
// inline, then storage path, then URL.
type Report struct {
	ID          uuid.UUID    `json:"id"`
	SessionID   uuid.UUID    `json:"session_id"`
	Title       string       `json:"title"`
	Status      ReportStatus `json:"status"`
	Content     *string      `json:"content,omitempty"`
	StoragePath *string      `json:"storage_path,omitempty"`
	ContentURL  *string      `json:"content_url,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasInlineContent reports whether the report carries its content directly
func (r *Report) HasInlineContent() bool {
	return r.Content != nil && *r.Content != ""
}
