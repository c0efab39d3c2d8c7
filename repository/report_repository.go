package repository

import (
	"context"

	"docchat-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles database operations for drafted reports
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create creates a new report record
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (
			session_id, title, status, content, storage_path, content_url
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		report.SessionID,
		report.Title,
		report.Status,
		report.Content,
		report.StoragePath,
		report.ContentURL,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)

	return err
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report := &models.Report{}
	query := `
		SELECT id, session_id, title, status, content, storage_path, content_url,
			created_at, updated_at
		FROM reports
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.SessionID,
		&report.Title,
		&report.Status,
		&report.Content,
		&report.StoragePath,
		&report.ContentURL,
		&report.CreatedAt,
		&report.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return report, nil
}

// ListBySessionID retrieves all reports for a session, newest first
func (r *ReportRepository) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*models.Report, error) {
	query := `
		SELECT id, session_id, title, status, content, storage_path, content_url,
			created_at, updated_at
		FROM reports
		WHERE session_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		report := &models.Report{}
		err := rows.Scan(
			&report.ID,
			&report.SessionID,
			&report.Title,
			&report.Status,
			&report.Content,
			&report.StoragePath,
			&report.ContentURL,
			&report.CreatedAt,
			&report.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// UpdateContent stores resolved report content inline and marks the report
// completed
func (r *ReportRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	query := `
		UPDATE reports
		SET content = $2, status = $3, updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, content, models.ReportStatusCompleted)
	return err
}

// UpdateStatus updates a report's status
func (r *ReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReportStatus) error {
	query := `UPDATE reports SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, status)
	return err
}
