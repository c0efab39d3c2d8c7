package realtime

import (
	"log"
	"sync"

	"docchat-backend/models"

	"github.com/google/uuid"
)

// Session binds one reconciled transcript to one live hub subscription.
// Lifecycle: Open loads the authoritative history and subscribes, pushed
// events are merged as they arrive, Close releases the channel. A closed
// session ignores every further event; mutation after release is a defect
// in the caller, guarded here rather than recovered from.
type Session struct {
	sessionID  uuid.UUID
	transcript *Transcript
	sub        *Subscription
	onInsert   func(models.ChatMessage)

	mu     sync.Mutex
	closed bool
}

// Open replaces any provisional transcript with the supplied history and
// subscribes to the session's push channel before returning, so no event
// published after Open returns can be missed. onInsert, when non-nil, is
// invoked from the pump goroutine for every event that actually inserted.
func Open(hub *Hub, sessionID uuid.UUID, history []models.ChatMessage, onInsert func(models.ChatMessage)) *Session {
	s := &Session{
		sessionID:  sessionID,
		transcript: NewTranscript(),
		onInsert:   onInsert,
	}
	s.transcript.Replace(history)
	s.sub = hub.Subscribe(sessionID)
	go s.pump()
	return s
}

func (s *Session) pump() {
	for ev := range s.sub.Events() {
		if s.Apply(ev.Message) && s.onInsert != nil {
			s.onInsert(ev.Message)
		}
	}
}

// Apply is the reducer step for one pushed event. Events for a different
// session and events arriving after Close are dropped.
func (s *Session) Apply(msg models.ChatMessage) bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		log.Printf("Warning: event for session %s arrived after release, ignoring message %s", s.sessionID, msg.ID)
		return false
	}
	if msg.SessionID != s.sessionID {
		// A stale event from a previous subscription must not pollute
		// this session's transcript.
		return false
	}
	return s.transcript.Apply(msg)
}

// Refresh performs a full replace from the authoritative history. This is
// the user-triggered resynchronization path when the push channel has
// silently dropped events.
func (s *Session) Refresh(history []models.ChatMessage) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return
	}
	s.transcript.Replace(history)
}

// Messages returns the current reconciled transcript snapshot
func (s *Session) Messages() []models.ChatMessage {
	return s.transcript.Messages()
}

// SessionID returns the chat session this reconciler serves
func (s *Session) SessionID() uuid.UUID {
	return s.sessionID
}

// Close marks the reconciler released and unsubscribes from the push
// channel. Switching sessions must Close the old reconciler before opening
// the new one.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.sub.Unsubscribe()
}
