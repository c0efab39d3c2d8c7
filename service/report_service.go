package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"docchat-backend/content"
	"docchat-backend/models"
	"docchat-backend/repository"
	"docchat-backend/storage"

	"github.com/google/uuid"
)

// ReportService handles report retrieval and rendering. Report content may
// sit inline on the row, in the object store, or behind an absolute URL;
// resolution tries those in order and is transparent to the caller.
type ReportService struct {
	reportRepo *repository.ReportRepository
	store      storage.Storage
	httpClient *http.Client
}

// ReportServiceOption is a functional option for ReportService
type ReportServiceOption func(*ReportService)

// ReportWithRepository sets the report repository
func ReportWithRepository(repo *repository.ReportRepository) ReportServiceOption {
	return func(s *ReportService) {
		s.reportRepo = repo
	}
}

// ReportWithStorage sets the object storage backend
func ReportWithStorage(store storage.Storage) ReportServiceOption {
	return func(s *ReportService) {
		s.store = store
	}
}

// ReportWithHTTPClient sets the HTTP client used for URL-referenced content
func ReportWithHTTPClient(client *http.Client) ReportServiceOption {
	return func(s *ReportService) {
		s.httpClient = client
	}
}

// NewReportService creates a new report service
func NewReportService(opts ...ReportServiceOption) *ReportService {
	s := &ReportService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return s
}

var (
	ErrReportNotFound = errors.New("report not found")
	ErrNoContent      = errors.New("report has no content")
)

// FetchError is a retryable content-fetch failure. It preserves the
// reference that triggered it so the caller can re-invoke the fetch
// without re-deriving it.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch report content from %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// GetReport retrieves one report record
func (s *ReportService) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	if s.reportRepo == nil {
		return nil, errors.New("report repository not set")
	}

	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// ListReports lists a session's reports
func (s *ReportService) ListReports(ctx context.Context, sessionID uuid.UUID) ([]*models.Report, error) {
	if s.reportRepo == nil {
		return nil, errors.New("report repository not set")
	}
	return s.reportRepo.ListBySessionID(ctx, sessionID)
}

// ResolveContent returns a report's raw content, fetching lazily when it is
// not inline: storage paths go through the object store's direct-download
// path, absolute URLs through HTTP. Fetched content is cached back onto the
// row. An empty result is ErrNoContent, distinct from a fetch failure.
func (s *ReportService) ResolveContent(ctx context.Context, report *models.Report) (string, error) {
	// 1. Inline content needs no fetch
	if report.HasInlineContent() {
		if strings.TrimSpace(*report.Content) == "" {
			return "", ErrNoContent
		}
		return *report.Content, nil
	}

	// 2. Storage path: direct download
	if report.StoragePath != nil && *report.StoragePath != "" {
		text, err := s.fetchFromStorage(ctx, *report.StoragePath)
		if err != nil {
			return "", &FetchError{Ref: *report.StoragePath, Err: err}
		}
		return s.finishResolve(ctx, report, text)
	}

	// 3. Absolute URL: HTTP fetch
	if report.ContentURL != nil && *report.ContentURL != "" {
		text, err := s.fetchFromURL(ctx, *report.ContentURL)
		if err != nil {
			return "", &FetchError{Ref: *report.ContentURL, Err: err}
		}
		return s.finishResolve(ctx, report, text)
	}

	return "", ErrNoContent
}

func (s *ReportService) finishResolve(ctx context.Context, report *models.Report, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrNoContent
	}

	// Cache the resolved content inline; failure only costs a refetch.
	if s.reportRepo != nil {
		if err := s.reportRepo.UpdateContent(ctx, report.ID, text); err != nil {
			log.Printf("Warning: failed to cache content for report %s: %v", report.ID, err)
		}
	}
	report.Content = &text

	return text, nil
}

func (s *ReportService) fetchFromStorage(ctx context.Context, storagePath string) (string, error) {
	if s.store == nil {
		return "", errors.New("storage not configured")
	}

	reader, err := s.store.Download(ctx, storagePath)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *ReportService) fetchFromURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RenderedReport is the full-document presentation of a report: the
// hierarchical section tree plus lifted figure references
type RenderedReport struct {
	Report   *models.Report            `json:"report"`
	Sections []*content.Section        `json:"sections"`
	Figures  []content.FigureReference `json:"figures"`
}

// RenderReport resolves the report's content, normalizes it, and builds the
// navigable section tree for the presentation layer
func (s *ReportService) RenderReport(ctx context.Context, id uuid.UUID) (*RenderedReport, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := s.ResolveContent(ctx, report)
	if err != nil {
		return nil, err
	}

	text := content.Normalize(raw)
	sections, figures := content.BuildSections(text)

	return &RenderedReport{
		Report:   report,
		Sections: sections,
		Figures:  figures,
	}, nil
}
