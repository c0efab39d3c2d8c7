package service

import (
	"context"
	"errors"
	"log"

	"docchat-backend/content"
	"docchat-backend/models"
	"docchat-backend/realtime"
	"docchat-backend/repository"

	"github.com/google/uuid"
)

// ChatService handles chat session and message logic. Assistant content is
// produced by the external workflow engine; this service owns the local
// side: optimistic inserts, the push channel, history loads, and rendering
// message content for the presentation layer.
type ChatService struct {
	sessionRepo *repository.SessionRepository
	messageRepo *repository.MessageRepository
	chunkRepo   *repository.ChunkRepository
	hub         *realtime.Hub
	workflow    *WorkflowClient
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// ChatWithSessionRepository sets the session repository
func ChatWithSessionRepository(repo *repository.SessionRepository) ChatServiceOption {
	return func(s *ChatService) {
		s.sessionRepo = repo
	}
}

// ChatWithMessageRepository sets the message repository
func ChatWithMessageRepository(repo *repository.MessageRepository) ChatServiceOption {
	return func(s *ChatService) {
		s.messageRepo = repo
	}
}

// ChatWithChunkRepository sets the chunk repository
func ChatWithChunkRepository(repo *repository.ChunkRepository) ChatServiceOption {
	return func(s *ChatService) {
		s.chunkRepo = repo
	}
}

// ChatWithHub sets the realtime hub
func ChatWithHub(hub *realtime.Hub) ChatServiceOption {
	return func(s *ChatService) {
		s.hub = hub
	}
}

// ChatWithWorkflowClient sets the workflow engine client
func ChatWithWorkflowClient(client *WorkflowClient) ChatServiceOption {
	return func(s *ChatService) {
		s.workflow = client
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrMessageNotFound = errors.New("chat message not found")
	ErrEmptyMessage    = errors.New("message content is empty")
)

// CreateSessionRequest represents a request to create a chat session
type CreateSessionRequest struct {
	UserID uuid.UUID
	Title  string
}

// CreateSessionResult represents the result of creating a chat session
type CreateSessionResult struct {
	Session *models.ChatSession
}

// CreateSession creates a new chat session
func (s *ChatService) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResult, error) {
	if s.sessionRepo == nil {
		return nil, errors.New("session repository not set")
	}

	session := &models.ChatSession{
		UserID: req.UserID,
		Title:  req.Title,
	}
	if session.Title == "" {
		session.Title = "New chat"
	}

	err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	return &CreateSessionResult{Session: session}, nil
}

// ListSessionsRequest represents a request to list a user's sessions
type ListSessionsRequest struct {
	UserID uuid.UUID
}

// ListSessionsResult represents the result of listing sessions
type ListSessionsResult struct {
	Sessions []*models.ChatSession
}

// ListSessions lists chat sessions for a user
func (s *ChatService) ListSessions(ctx context.Context, req ListSessionsRequest) (*ListSessionsResult, error) {
	if s.sessionRepo == nil {
		return nil, errors.New("session repository not set")
	}

	sessions, err := s.sessionRepo.ListByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	return &ListSessionsResult{Sessions: sessions}, nil
}

// GetSession retrieves one chat session
func (s *ChatService) GetSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	if s.sessionRepo == nil {
		return nil, errors.New("session repository not set")
	}

	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession deletes a session and its history. This is the only path
// that removes chat messages.
func (s *ChatService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if s.sessionRepo == nil {
		return errors.New("session repository not set")
	}
	return s.sessionRepo.Delete(ctx, id)
}

// PostMessageRequest represents a user turn being posted
type PostMessageRequest struct {
	SessionID uuid.UUID
	Content   string
	Metadata  models.MessageMetadata
}

// PostMessageResult represents the result of posting a user turn
type PostMessageResult struct {
	Message *models.ChatMessage
}

// PostMessage performs the optimistic local insert of a user turn: the
// message is persisted with status "sending" and published on the push
// channel immediately. Dispatch to the workflow engine happens separately
// (see DispatchToWorkflow) so this path returns quickly.
func (s *ChatService) PostMessage(ctx context.Context, req PostMessageRequest) (*PostMessageResult, error) {
	if s.messageRepo == nil {
		return nil, errors.New("message repository not set")
	}
	if s.sessionRepo == nil {
		return nil, errors.New("session repository not set")
	}
	if req.Content == "" {
		return nil, ErrEmptyMessage
	}

	// 1. Validate the session exists
	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	// 2. Persist the user message with a client-visible id
	msg := &models.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   req.Content,
		Status:    models.MessageStatusSending,
		Metadata:  req.Metadata,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Touch(ctx, session.ID); err != nil {
		log.Printf("Warning: failed to touch session %s: %v", session.ID, err)
	}

	// 3. Publish the insert event to subscribers
	if s.hub != nil {
		s.hub.Publish(realtime.MessageEvent{SessionID: session.ID, Message: *msg})
	}

	return &PostMessageResult{Message: msg}, nil
}

// DispatchToWorkflow forwards a posted user turn to the external workflow
// engine and records the outcome on the message's status. Intended to run
// in a goroutine after PostMessage; can take as long as the engine takes.
func (s *ChatService) DispatchToWorkflow(ctx context.Context, msg *models.ChatMessage) {
	if s.workflow == nil {
		// No engine configured: the turn stays local
		s.updateStatus(ctx, msg.ID, models.MessageStatusDelivered)
		return
	}

	if err := s.workflow.TriggerChat(ctx, msg.SessionID, msg); err != nil {
		log.Printf("Warning: workflow dispatch failed for message %s: %v", msg.ID, err)
		s.updateStatus(ctx, msg.ID, models.MessageStatusFailed)
		return
	}
	s.updateStatus(ctx, msg.ID, models.MessageStatusDelivered)
}

func (s *ChatService) updateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) {
	if err := s.messageRepo.UpdateStatus(ctx, id, status); err != nil {
		log.Printf("Warning: failed to update status for message %s: %v", id, err)
	}
}

// ReceiveAssistantMessageRequest is the workflow callback payload: a full
// assistant turn plus the retrieval chunks backing its citations
type ReceiveAssistantMessageRequest struct {
	SessionID uuid.UUID
	Content   string
	Metadata  models.MessageMetadata
	Chunks    []models.SourceChunk
}

// ReceiveAssistantMessageResult represents the stored assistant turn
type ReceiveAssistantMessageResult struct {
	Message *models.ChatMessage
}

// ReceiveAssistantMessage persists an assistant turn arriving from the
// workflow engine callback, stores its retrieval chunks, and publishes the
// insert event on the push channel.
func (s *ChatService) ReceiveAssistantMessage(ctx context.Context, req ReceiveAssistantMessageRequest) (*ReceiveAssistantMessageResult, error) {
	if s.messageRepo == nil {
		return nil, errors.New("message repository not set")
	}
	if s.sessionRepo == nil {
		return nil, errors.New("session repository not set")
	}

	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	msg := &models.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   req.Content,
		Status:    models.MessageStatusDelivered,
		Metadata:  req.Metadata,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.chunkRepo != nil && len(req.Chunks) > 0 {
		chunks := make([]models.SourceChunk, len(req.Chunks))
		copy(chunks, req.Chunks)
		for i := range chunks {
			chunks[i].MessageID = msg.ID
			if chunks[i].ChunkIndex == 0 {
				chunks[i].ChunkIndex = i
			}
		}
		if err := s.chunkRepo.CreateBatch(ctx, chunks); err != nil {
			// The message is already stored; citations will render as
			// plain text without their chunks.
			log.Printf("Warning: failed to store chunks for message %s: %v", msg.ID, err)
		}
	}

	if err := s.sessionRepo.Touch(ctx, session.ID); err != nil {
		log.Printf("Warning: failed to touch session %s: %v", session.ID, err)
	}

	if s.hub != nil {
		s.hub.Publish(realtime.MessageEvent{SessionID: session.ID, Message: *msg})
	}

	return &ReceiveAssistantMessageResult{Message: msg}, nil
}

// LoadHistory returns the full ordered history for a session. Used for
// session open and the manual-refresh escape hatch.
func (s *ChatService) LoadHistory(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	if s.messageRepo == nil {
		return nil, errors.New("message repository not set")
	}
	return s.messageRepo.ListBySessionID(ctx, sessionID)
}

// RenderedMessage is the inline-chat presentation of one message: its
// normalized text split into plain/cited segments plus the citation list
type RenderedMessage struct {
	Message   *models.ChatMessage      `json:"message"`
	Segments  []content.MessageSegment `json:"segments"`
	Citations []content.Citation       `json:"citations"`
	NoContent bool                     `json:"no_content"`
}

// RenderMessage normalizes a message's raw content and segments it against
// its retrieval chunks. Parsing never fails; an empty result after
// normalization is reported as an explicit no-content state, distinct from
// any fetch error.
func (s *ChatService) RenderMessage(ctx context.Context, messageID uuid.UUID) (*RenderedMessage, error) {
	if s.messageRepo == nil {
		return nil, errors.New("message repository not set")
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}

	var chunks []models.SourceChunk
	if s.chunkRepo != nil {
		chunks, err = s.chunkRepo.ListByMessageID(ctx, messageID)
		if err != nil {
			log.Printf("Warning: failed to load chunks for message %s: %v", messageID, err)
			chunks = nil
		}
	}

	text := content.Normalize(msg.Content)
	if isBlank(text) {
		return &RenderedMessage{
			Message:   msg,
			Segments:  []content.MessageSegment{},
			Citations: content.BuildCitations(chunks),
			NoContent: true,
		}, nil
	}

	segments, citations := content.SegmentCitations(text, chunks)
	return &RenderedMessage{
		Message:   msg,
		Segments:  segments,
		Citations: citations,
	}, nil
}

func isBlank(text string) bool {
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
