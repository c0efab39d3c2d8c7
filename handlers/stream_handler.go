package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"

	"docchat-backend/models"
	"docchat-backend/realtime"
	"docchat-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// streamCommand is a client message on the transcript socket. The only
// recognized action is "refresh", the manual resynchronization escape
// hatch for a silently dead channel.
type streamCommand struct {
	Action string `json:"action"`
}

// wsWriter serializes writes to one websocket connection; the reconciler
// pump and the command loop both produce frames.
type wsWriter struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (w *wsWriter) sendJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.ws.WriteJSON(v)
	if err != nil {
		log.Printf("Warning: failed to write websocket frame: %v", err)
	}
	return err
}

// StreamHandler serves the live transcript websocket for open sessions
type StreamHandler struct {
	chatService *service.ChatService
	hub         *realtime.Hub
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(chatService *service.ChatService, hub *realtime.Hub) *StreamHandler {
	return &StreamHandler{chatService: chatService, hub: hub}
}

// SessionStream handles GET /api/sessions/:id/stream. On connect it loads
// the authoritative history, opens a reconciler bound to the session's push
// channel, sends a transcript snapshot, then forwards each reconciled
// insert as it arrives. The subscription is released when the socket
// closes, before the handler returns.
func (h *StreamHandler) SessionStream(c *gin.Context) {
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

	if _, err := h.chatService.GetSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_NOT_FOUND",
				"message": "Session not found",
			},
		})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Warning: failed to upgrade websocket: %v", err)
		return
	}
	defer ws.Close()

	writer := &wsWriter{ws: ws}

	// History must be loaded and the channel subscribed before the first
	// frame goes out, so nothing published in between is lost.
	history, err := h.chatService.LoadHistory(c.Request.Context(), sessionID)
	if err != nil {
		writer.sendJSON(gin.H{"type": "error", "message": "failed to load history"})
		return
	}

	reconciler := realtime.Open(h.hub, sessionID, history, func(msg models.ChatMessage) {
		writer.sendJSON(gin.H{"type": "message", "message": msg})
	})
	defer reconciler.Close()

	if err := writer.sendJSON(gin.H{
		"type":     "snapshot",
		"messages": reconciler.Messages(),
	}); err != nil {
		return
	}

	// Command loop: blocks on the socket until the client disconnects
	for {
		var cmd streamCommand
		if err := ws.ReadJSON(&cmd); err != nil {
			log.Printf("Websocket client disconnected from session %s: %v", sessionID, err)
			return
		}

		switch cmd.Action {
		case "refresh":
			h.refresh(c.Request.Context(), sessionID, reconciler, writer)
		default:
			writer.sendJSON(gin.H{"type": "error", "message": "unknown action"})
		}
	}
}

// refresh performs a full replace from the authoritative history rather
// than a merge
func (h *StreamHandler) refresh(ctx context.Context, sessionID uuid.UUID, reconciler *realtime.Session, writer *wsWriter) {
	history, err := h.chatService.LoadHistory(ctx, sessionID)
	if err != nil {
		log.Printf("Warning: refresh failed for session %s: %v", sessionID, err)
		writer.sendJSON(gin.H{"type": "error", "message": "refresh failed"})
		return
	}

	reconciler.Refresh(history)
	writer.sendJSON(gin.H{
		"type":     "snapshot",
		"messages": reconciler.Messages(),
	})
}
