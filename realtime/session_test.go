package realtime

import (
	"sync"
	"testing"
	"time"

	"docchat-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insertRecorder collects onInsert callbacks from the pump goroutine.
type insertRecorder struct {
	mu       sync.Mutex
	inserted []models.ChatMessage
}

func (r *insertRecorder) record(msg models.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, msg)
}

func (r *insertRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inserted)
}

func waitForCount(t *testing.T, r *insertRecorder, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d inserts, have %d", want, r.count())
}

func TestSessionOpenLoadsHistory(t *testing.T) {
	hub := NewHub()
	sessionID := uuid.New()
	history := []models.ChatMessage{
		makeMessage(sessionID, models.RoleUser, "question", 0),
		makeMessage(sessionID, models.RoleAssistant, "answer", time.Minute),
	}

	s := Open(hub, sessionID, history, nil)
	defer s.Close()

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "question", msgs[0].Content)
	assert.Equal(t, "answer", msgs[1].Content)
	assert.Equal(t, sessionID, s.SessionID())
}

func TestSessionReceivesPushedEvents(t *testing.T) {
	hub := NewHub()
	sessionID := uuid.New()
	rec := &insertRecorder{}

	s := Open(hub, sessionID, nil, rec.record)
	defer s.Close()

	pushed := makeMessage(sessionID, models.RoleAssistant, "pushed", 0)
	hub.Publish(MessageEvent{SessionID: sessionID, Message: pushed})

	waitForCount(t, rec, 1)
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, pushed.ID, msgs[0].ID)
}

func TestSessionDuplicatePushInvokesCallbackOnce(t *testing.T) {
	hub := NewHub()
	sessionID := uuid.New()
	rec := &insertRecorder{}

	s := Open(hub, sessionID, nil, rec.record)
	defer s.Close()

	msg := makeMessage(sessionID, models.RoleUser, "once", 0)
	hub.Publish(MessageEvent{SessionID: sessionID, Message: msg})
	hub.Publish(MessageEvent{SessionID: sessionID, Message: msg})
	hub.Publish(MessageEvent{SessionID: sessionID, Message: msg})

	waitForCount(t, rec, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 1, len(s.Messages()))
}

func TestSessionIgnoresForeignSessionEvents(t *testing.T) {
	hub := NewHub()
	sessionID := uuid.New()
	other := uuid.New()

	s := Open(hub, sessionID, nil, nil)
	defer s.Close()

	// An event stamped for another session must not enter the transcript
	// even if it reaches Apply directly.
	assert.False(t, s.Apply(makeMessage(other, models.RoleUser, "stray", 0)))
	assert.Empty(t, s.Messages())
}

func TestSessionApplyAfterCloseIsIgnored(t *testing.T) {
	hub := NewHub()
	sessionID := uuid.New()

	s := Open(hub, sessionID, nil, nil)
	s.Close()

	assert.False(t, s.Apply(makeMessage(sessionID, models.RoleUser, "late", 0)))
	assert.Empty(t, s.Messages())
}

func TestSessionCloseUnsubscribes(t *testing.T) {
	hub := NewHub()
	sessionID := uuid.New()

	s := Open(hub, sessionID, nil, nil)
	assert.Equal(t, 1, hub.SubscriberCount(sessionID))

	s.Close()
	assert.Equal(t, 0, hub.SubscriberCount(sessionID))

	assert.NotPanics(t, func() { s.Close() })
}

func TestSessionRefreshReplacesTranscript(t *testing.T) {
	hub := NewHub()
	sessionID := uuid.New()
	rec := &insertRecorder{}

	s := Open(hub, sessionID, nil, rec.record)
	defer s.Close()

	hub.Publish(MessageEvent{SessionID: sessionID, Message: makeMessage(sessionID, models.RoleUser, "provisional", 0)})
	waitForCount(t, rec, 1)

	history := []models.ChatMessage{
		makeMessage(sessionID, models.RoleUser, "auth one", 0),
		makeMessage(sessionID, models.RoleAssistant, "auth two", time.Minute),
	}
	s.Refresh(history)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "auth one", msgs[0].Content)
	assert.Equal(t, "auth two", msgs[1].Content)
}

func TestSessionSwitchingSessions(t *testing.T) {
	hub := NewHub()
	sessionA := uuid.New()
	sessionB := uuid.New()

	first := Open(hub, sessionA, nil, nil)
	first.Close()

	second := Open(hub, sessionB, nil, nil)
	defer second.Close()

	// Events for the old session go nowhere; events for the new one land.
	hub.Publish(MessageEvent{SessionID: sessionA, Message: makeMessage(sessionA, models.RoleUser, "old", 0)})
	hub.Publish(MessageEvent{SessionID: sessionB, Message: makeMessage(sessionB, models.RoleUser, "new", 0)})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(second.Messages()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	require.Len(t, second.Messages(), 1)
	assert.Equal(t, "new", second.Messages()[0].Content)
	assert.Empty(t, first.Messages())
}
