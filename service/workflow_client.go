package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"docchat-backend/models"

	"github.com/google/uuid"
)

// WorkflowClient is the boundary client for the external workflow engine.
// The engine performs OCR, chunking, embedding, retrieval and drafting;
// this client only posts user turns to its webhook. Assistant content comes
// back asynchronously through the callback endpoint, never on this request.
type WorkflowClient struct {
	webhookURL string
	httpClient *http.Client
}

var ErrWorkflowNotConfigured = errors.New("workflow webhook URL not configured")

const (
	workflowMaxRetries     = 3
	workflowInitialBackoff = time.Second
	workflowRequestTimeout = 30 * time.Second
)

// NewWorkflowClient creates a workflow client for the given webhook URL
func NewWorkflowClient(webhookURL string) *WorkflowClient {
	return &WorkflowClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: workflowRequestTimeout},
	}
}

// NewWorkflowClientFromEnv creates a workflow client from environment
// variables. Returns nil when WORKFLOW_WEBHOOK_URL is not set, which runs
// the service with chat turns staying local.
func NewWorkflowClientFromEnv() *WorkflowClient {
	url := os.Getenv("WORKFLOW_WEBHOOK_URL")
	if url == "" {
		return nil
	}
	return NewWorkflowClient(url)
}

// chatTriggerPayload is the webhook body for a user turn
type chatTriggerPayload struct {
	SessionID string                 `json:"session_id"`
	MessageID string                 `json:"message_id"`
	Content   string                 `json:"content"`
	Metadata  models.MessageMetadata `json:"metadata,omitempty"`
}

// TriggerChat posts a user turn to the workflow engine webhook with
// retry and exponential backoff
func (c *WorkflowClient) TriggerChat(ctx context.Context, sessionID uuid.UUID, msg *models.ChatMessage) error {
	if c.webhookURL == "" {
		return ErrWorkflowNotConfigured
	}

	payload := chatTriggerPayload{
		SessionID: sessionID.String(),
		MessageID: msg.ID.String(),
		Content:   msg.Content,
		Metadata:  msg.Metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	backoff := workflowInitialBackoff
	var lastErr error
	for attempt := 0; attempt < workflowMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("workflow webhook returned status %d", resp.StatusCode)

		// Client errors won't improve on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("workflow webhook failed after %d attempts: %w", workflowMaxRetries, lastErr)
}
