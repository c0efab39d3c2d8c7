package handlers

import (
	"errors"
	"io"
	"net/http"

	"docchat-backend/service"
	"docchat-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportHandler handles HTTP requests for drafted reports
type ReportHandler struct {
	reportService *service.ReportService
	store         storage.Storage
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService, store storage.Storage) *ReportHandler {
	return &ReportHandler{reportService: reportService, store: store}
}

// GetReport handles GET /api/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REPORT_ID",
				"message": "Invalid report id format",
			},
		})
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPORT_NOT_FOUND",
				"message": "Report not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// ListReports handles GET /api/sessions/:id/reports
func (h *ReportHandler) ListReports(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SESSION_ID",
				"message": "Invalid session id format",
			},
		})
		return
	}

	reports, err := h.reportService.ListReports(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reports,
	})
}

// RenderReport handles GET /api/reports/:id/render
func (h *ReportHandler) RenderReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REPORT_ID",
				"message": "Invalid report id format",
			},
		})
		return
	}

	rendered, err := h.reportService.RenderReport(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rendered,
	})
}

// renderError maps content-resolution failures onto the response envelope.
// Fetch failures are retryable and keep the triggering reference so the
// client can re-invoke without re-deriving it; an empty report is an
// explicit no-content state, not an error to retry.
func (h *ReportHandler) renderError(c *gin.Context, err error) {
	var fetchErr *service.FetchError
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPORT_NOT_FOUND",
				"message": "Report not found",
			},
		})
	case errors.Is(err, service.ErrNoContent):
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"no_content": true,
			},
		})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":      "FETCH_FAILED",
				"message":   fetchErr.Error(),
				"ref":       fetchErr.Ref,
				"retryable": true,
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RENDER_FAILED",
				"message": err.Error(),
			},
		})
	}
}

// DownloadReport handles GET /api/reports/:id/download, streaming the raw
// blob from storage
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REPORT_ID",
				"message": "Invalid report id format",
			},
		})
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPORT_NOT_FOUND",
				"message": "Report not found",
			},
		})
		return
	}

	if report.StoragePath == nil || *report.StoragePath == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_STORED_BLOB",
				"message": "Report has no stored blob",
			},
		})
		return
	}

	reader, err := h.store.Download(c.Request.Context(), *report.StoragePath)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":      "FETCH_FAILED",
				"message":   err.Error(),
				"ref":       *report.StoragePath,
				"retryable": true,
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", "attachment; filename=\""+report.Title+".md\"")
	c.Header("Content-Type", "text/markdown")
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers are already out; nothing to do but record it
		_ = c.Error(err)
	}
}
