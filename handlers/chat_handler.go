package handlers

import (
	"context"
	"errors"
	"net/http"

	"docchat-backend/models"
	"docchat-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles HTTP requests for chat messages and the workflow
// engine callback
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// PostMessageRequest represents the request body for posting a user turn
type PostMessageRequest struct {
	Content  string                 `json:"content" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

// PostMessage handles POST /api/sessions/:id/messages
func (h *ChatHandler) PostMessage(c *gin.Context) {
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

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.chatService.PostMessage(c.Request.Context(), service.PostMessageRequest{
		SessionID: sessionID,
		Content:   req.Content,
		Metadata:  models.MessageMetadata(req.Metadata),
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "POST_FAILED"
		if errors.Is(err, service.ErrSessionNotFound) {
			status = http.StatusNotFound
			code = "SESSION_NOT_FOUND"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	// Dispatch to the workflow engine in the background; the assistant
	// reply arrives later through the callback endpoint.
	go h.chatService.DispatchToWorkflow(context.Background(), result.Message)

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    result.Message,
	})
}

// ListMessages handles GET /api/sessions/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
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

	messages, err := h.chatService.LoadHistory(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "HISTORY_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// RenderMessage handles GET /api/messages/:id/render
func (h *ChatHandler) RenderMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_MESSAGE_ID",
				"message": "Invalid message id format",
			},
		})
		return
	}

	rendered, err := h.chatService.RenderMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		code := "RENDER_FAILED"
		if errors.Is(err, service.ErrMessageNotFound) {
			status = http.StatusNotFound
			code = "MESSAGE_NOT_FOUND"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rendered,
	})
}

// WorkflowCallbackRequest represents the callback body the workflow engine
// posts when an assistant turn is ready. Chunks carry the retrieval results
// backing the turn's citation markers.
type WorkflowCallbackRequest struct {
	SessionID string                 `json:"session_id" binding:"required"`
	Content   string                 `json:"content" binding:"required"`
	Metadata  map[string]interface{} `json:"metadata"`
	Chunks    []WorkflowChunk        `json:"chunks"`
}

// WorkflowChunk is one retrieval result in a workflow callback
type WorkflowChunk struct {
	ChunkIndex  int                    `json:"chunk_index"`
	SourceID    string                 `json:"source_id"`
	SourceTitle string                 `json:"source_title"`
	SourceType  string                 `json:"source_type"`
	Excerpt     string                 `json:"excerpt"`
	Score       *float64               `json:"score,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// WorkflowCallback handles POST /api/webhooks/workflow
func (h *ChatHandler) WorkflowCallback(c *gin.Context) {
	var req WorkflowCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SESSION_ID",
				"message": "Invalid session_id format",
			},
		})
		return
	}

	chunks := make([]models.SourceChunk, 0, len(req.Chunks))
	for _, ch := range req.Chunks {
		chunks = append(chunks, models.SourceChunk{
			ChunkIndex:  ch.ChunkIndex,
			SourceID:    ch.SourceID,
			SourceTitle: ch.SourceTitle,
			SourceType:  ch.SourceType,
			Excerpt:     ch.Excerpt,
			Score:       ch.Score,
			Metadata:    ch.Metadata,
		})
	}

	result, err := h.chatService.ReceiveAssistantMessage(c.Request.Context(), service.ReceiveAssistantMessageRequest{
		SessionID: sessionID,
		Content:   req.Content,
		Metadata:  models.MessageMetadata(req.Metadata),
		Chunks:    chunks,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "CALLBACK_FAILED"
		if errors.Is(err, service.ErrSessionNotFound) {
			status = http.StatusNotFound
			code = "SESSION_NOT_FOUND"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"message_id": result.Message.ID},
	})
}
