package realtime

import (
	"testing"
	"time"

	"docchat-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transcriptBase = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func makeMessage(sessionID uuid.UUID, role models.MessageRole, content string, offset time.Duration) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Status:    models.MessageStatusDelivered,
		CreatedAt: transcriptBase.Add(offset),
	}
}

func TestTranscriptApplyOrdersByTimestamp(t *testing.T) {
	sessionID := uuid.New()
	first := makeMessage(sessionID, models.RoleUser, "first", 0)
	second := makeMessage(sessionID, models.RoleAssistant, "second", time.Minute)
	third := makeMessage(sessionID, models.RoleUser, "third", 2*time.Minute)

	// Deliver out of order; the transcript reorders by timestamp.
	tr := NewTranscript()
	assert.True(t, tr.Apply(third))
	assert.True(t, tr.Apply(first))
	assert.True(t, tr.Apply(second))

	msgs := tr.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}

func TestTranscriptApplyDedupesByID(t *testing.T) {
	sessionID := uuid.New()
	msg := makeMessage(sessionID, models.RoleUser, "hello", 0)

	tr := NewTranscript()
	assert.True(t, tr.Apply(msg))
	assert.False(t, tr.Apply(msg))
	assert.False(t, tr.Apply(msg))
	assert.Equal(t, 1, tr.Len())
}

func TestTranscriptNearDuplicateGuard(t *testing.T) {
	sessionID := uuid.New()
	local := makeMessage(sessionID, models.RoleUser, "same words", 0)

	// Authoritative copy: different id, same role and content, inside the
	// window.
	pushed := makeMessage(sessionID, models.RoleUser, "same words", NearDuplicateWindow-time.Second)

	tr := NewTranscript()
	assert.True(t, tr.Apply(local))
	assert.False(t, tr.Apply(pushed))
	assert.Equal(t, 1, tr.Len())
}

func TestTranscriptNearDuplicateOutsideWindow(t *testing.T) {
	sessionID := uuid.New()
	first := makeMessage(sessionID, models.RoleUser, "same words", 0)
	later := makeMessage(sessionID, models.RoleUser, "same words", NearDuplicateWindow+time.Second)

	// Repeating yourself a while later is a real second message.
	tr := NewTranscript()
	assert.True(t, tr.Apply(first))
	assert.True(t, tr.Apply(later))
	assert.Equal(t, 2, tr.Len())
}

func TestTranscriptNearDuplicateDifferentRole(t *testing.T) {
	sessionID := uuid.New()
	user := makeMessage(sessionID, models.RoleUser, "echo", 0)
	assistant := makeMessage(sessionID, models.RoleAssistant, "echo", time.Second)

	tr := NewTranscript()
	assert.True(t, tr.Apply(user))
	assert.True(t, tr.Apply(assistant))
	assert.Equal(t, 2, tr.Len())
}

func TestTranscriptConvergesUnderPermutationAndDuplication(t *testing.T) {
	sessionID := uuid.New()
	msgs := []models.ChatMessage{
		makeMessage(sessionID, models.RoleUser, "one", 0),
		makeMessage(sessionID, models.RoleAssistant, "two", time.Minute),
		makeMessage(sessionID, models.RoleUser, "three", 2*time.Minute),
		makeMessage(sessionID, models.RoleAssistant, "four", 3*time.Minute),
	}

	deliveries := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2, 2, 0},
		{0, 0, 1, 1, 2, 2, 3, 3},
	}

	var want []string
	for _, order := range deliveries {
		tr := NewTranscript()
		for _, idx := range order {
			tr.Apply(msgs[idx])
		}

		got := make([]string, 0, tr.Len())
		for _, m := range tr.Messages() {
			got = append(got, m.Content)
		}

		if want == nil {
			want = got
		}
		assert.Equal(t, want, got, "delivery order %v", order)
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, want)
}

func TestTranscriptEqualTimestampsKeepInsertionOrder(t *testing.T) {
	sessionID := uuid.New()
	a := makeMessage(sessionID, models.RoleUser, "a", 0)
	b := makeMessage(sessionID, models.RoleAssistant, "b", 0)

	tr := NewTranscript()
	require.True(t, tr.Apply(a))
	require.True(t, tr.Apply(b))

	msgs := tr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Content)
	assert.Equal(t, "b", msgs[1].Content)
}

func TestTranscriptReplace(t *testing.T) {
	sessionID := uuid.New()
	provisional := makeMessage(sessionID, models.RoleUser, "provisional", 0)

	tr := NewTranscript()
	require.True(t, tr.Apply(provisional))

	history := []models.ChatMessage{
		makeMessage(sessionID, models.RoleUser, "auth one", 0),
		makeMessage(sessionID, models.RoleAssistant, "auth two", time.Minute),
	}
	tr.Replace(history)

	msgs := tr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "auth one", msgs[0].Content)
	assert.Equal(t, "auth two", msgs[1].Content)

	// The provisional message's id is forgotten by the replace; the
	// authoritative copy can use it again.
	assert.True(t, tr.Apply(provisional))
}

func TestTranscriptMessagesIsSnapshot(t *testing.T) {
	sessionID := uuid.New()
	tr := NewTranscript()
	require.True(t, tr.Apply(makeMessage(sessionID, models.RoleUser, "one", 0)))

	snapshot := tr.Messages()
	tr.Apply(makeMessage(sessionID, models.RoleUser, "two", time.Minute))
	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, tr.Len())
}
