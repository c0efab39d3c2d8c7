package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"docchat-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUserMessage(sessionID uuid.UUID) *models.ChatMessage {
	return &models.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   "What does clause 4 say?",
		Status:    models.MessageStatusSending,
		Metadata:  models.MessageMetadata{"source": "web"},
	}
}

func TestTriggerChatPostsPayload(t *testing.T) {
	sessionID := uuid.New()
	msg := testUserMessage(sessionID)

	var got chatTriggerPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewWorkflowClient(srv.URL)
	require.NoError(t, client.TriggerChat(context.Background(), sessionID, msg))

	assert.Equal(t, sessionID.String(), got.SessionID)
	assert.Equal(t, msg.ID.String(), got.MessageID)
	assert.Equal(t, msg.Content, got.Content)
	assert.Equal(t, "web", got.Metadata["source"])
}

func TestTriggerChatRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewWorkflowClient(srv.URL)
	sessionID := uuid.New()
	require.NoError(t, client.TriggerChat(context.Background(), sessionID, testUserMessage(sessionID)))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTriggerChatDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewWorkflowClient(srv.URL)
	sessionID := uuid.New()
	err := client.TriggerChat(context.Background(), sessionID, testUserMessage(sessionID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTriggerChatGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewWorkflowClient(srv.URL)
	sessionID := uuid.New()
	err := client.TriggerChat(context.Background(), sessionID, testUserMessage(sessionID))
	require.Error(t, err)
	assert.Equal(t, int32(workflowMaxRetries), atomic.LoadInt32(&calls))
}

func TestTriggerChatUnconfigured(t *testing.T) {
	client := &WorkflowClient{httpClient: http.DefaultClient}
	sessionID := uuid.New()
	err := client.TriggerChat(context.Background(), sessionID, testUserMessage(sessionID))
	assert.ErrorIs(t, err, ErrWorkflowNotConfigured)
}

func TestTriggerChatHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewWorkflowClient(srv.URL)
	sessionID := uuid.New()
	err := client.TriggerChat(ctx, sessionID, testUserMessage(sessionID))
	assert.Error(t, err)
}

func TestNewWorkflowClientFromEnv(t *testing.T) {
	t.Setenv("WORKFLOW_WEBHOOK_URL", "")
	assert.Nil(t, NewWorkflowClientFromEnv())

	t.Setenv("WORKFLOW_WEBHOOK_URL", "http://engine.local/webhook")
	client := NewWorkflowClientFromEnv()
	require.NotNil(t, client)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, isBlank(""))
	assert.True(t, isBlank("  \n\t\r "))
	assert.False(t, isBlank(" x "))
}
