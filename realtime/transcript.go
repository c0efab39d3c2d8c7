package realtime

import (
	"sort"
	"sync"
	"time"

	"docchat-backend/models"

	"github.com/google/uuid"
)

// NearDuplicateWindow is the timestamp tolerance for the secondary dedup
// guard: a pushed message with a different id but the same role and content
// as an existing entry within this window is treated as the same logical
// message (optimistic local echo vs authoritative push). The width is an
// open calibration question; keep it a named constant, not an inline value.
const NearDuplicateWindow = 5 * time.Second

type transcriptEntry struct {
	msg models.ChatMessage
	seq int
}

// Transcript is the reconciled, ordered view of a session's messages:
// unique by id, sorted ascending by timestamp, ties broken by insertion
// order. All mutations are commutative and idempotent at the point of
// insertion, so replaying or reordering a fixed set of events converges to
// the same transcript without any channel-level ordering guarantee.
type Transcript struct {
	mu      sync.Mutex
	entries []transcriptEntry
	seen    map[uuid.UUID]struct{}
	nextSeq int
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{seen: make(map[uuid.UUID]struct{})}
}

// Apply merges one pushed message into the transcript. Returns true when
// the message was inserted, false when the id was already present or the
// near-duplicate guard matched.
func (t *Transcript) Apply(msg models.ChatMessage) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[msg.ID]; ok {
		return false
	}
	if t.nearDuplicateLocked(msg) {
		return false
	}

	t.seen[msg.ID] = struct{}{}
	t.entries = append(t.entries, transcriptEntry{msg: msg, seq: t.nextSeq})
	t.nextSeq++
	t.sortLocked()
	return true
}

// Replace swaps in the authoritative history, discarding any provisional
// local state. This is the session-open path and the manual-refresh
// recovery path for a silently dead push channel.
func (t *Transcript) Replace(history []models.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = t.entries[:0]
	t.seen = make(map[uuid.UUID]struct{}, len(history))
	t.nextSeq = 0

	for _, msg := range history {
		if _, ok := t.seen[msg.ID]; ok {
			continue
		}
		t.seen[msg.ID] = struct{}{}
		t.entries = append(t.entries, transcriptEntry{msg: msg, seq: t.nextSeq})
		t.nextSeq++
	}
	t.sortLocked()
}

// Messages returns a snapshot in chronological order
func (t *Transcript) Messages() []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	msgs := make([]models.ChatMessage, len(t.entries))
	for i, e := range t.entries {
		msgs[i] = e.msg
	}
	return msgs
}

// Len returns the number of reconciled messages
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Transcript) nearDuplicateLocked(msg models.ChatMessage) bool {
	for _, e := range t.entries {
		if e.msg.Role != msg.Role || e.msg.Content != msg.Content {
			continue
		}
		delta := msg.CreatedAt.Sub(e.msg.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta < NearDuplicateWindow {
			return true
		}
	}
	return false
}

func (t *Transcript) sortLocked() {
	sort.SliceStable(t.entries, func(i, j int) bool {
		if t.entries[i].msg.CreatedAt.Equal(t.entries[j].msg.CreatedAt) {
			return t.entries[i].seq < t.entries[j].seq
		}
		return t.entries[i].msg.CreatedAt.Before(t.entries[j].msg.CreatedAt)
	})
}
