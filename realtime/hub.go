package realtime

import (
	"log"
	"sync"

	"docchat-backend/models"

	"github.com/google/uuid"
)

// MessageEvent is a push-channel insert event carrying a full message row
type MessageEvent struct {
	SessionID uuid.UUID          `json:"session_id"`
	Message   models.ChatMessage `json:"message"`
}

// subscriptionBuffer is the per-subscriber event queue depth. A subscriber
// that falls further behind than this loses events; the manual-refresh path
// is the recovery mechanism.
const subscriptionBuffer = 32

// Hub fans message-insert events out to per-session subscribers. It is the
// push notification channel of the system: subscribe/unsubscribe keyed by
// session id, no ordering guarantees to consumers.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*Subscription]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber for one session's events
func (h *Hub) Subscribe(sessionID uuid.UUID) *Subscription {
	sub := &Subscription{
		hub:       h,
		sessionID: sessionID,
		events:    make(chan MessageEvent, subscriptionBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sessionSubs := h.subs[sessionID]
	if sessionSubs == nil {
		sessionSubs = make(map[*Subscription]struct{})
		h.subs[sessionID] = sessionSubs
	}
	sessionSubs[sub] = struct{}{}
	return sub
}

// Publish delivers an event to every subscriber of its session. Delivery
// never blocks the publisher: events to a full subscriber queue are dropped
// and logged.
func (h *Hub) Publish(ev MessageEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.SessionID] {
		select {
		case sub.events <- ev:
		default:
			log.Printf("Warning: dropping event for slow subscriber on session %s", ev.SessionID)
		}
	}
}

// SubscriberCount reports how many subscribers a session currently has
func (h *Hub) SubscriberCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// unsubscribe removes and closes a subscription. Closing under the write
// lock excludes concurrent Publish sends, so the channel is never written
// after close.
func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionSubs := h.subs[sub.sessionID]
	if sessionSubs == nil {
		return
	}
	if _, ok := sessionSubs[sub]; !ok {
		return
	}
	delete(sessionSubs, sub)
	if len(sessionSubs) == 0 {
		delete(h.subs, sub.sessionID)
	}
	close(sub.events)
}

// Subscription is one subscriber's handle on a session's event stream
type Subscription struct {
	hub       *Hub
	sessionID uuid.UUID
	events    chan MessageEvent
	once      sync.Once
}

// Events returns the receive side of the event stream. The channel is
// closed by Unsubscribe.
func (s *Subscription) Events() <-chan MessageEvent {
	return s.events
}

// SessionID returns the session this subscription is scoped to
func (s *Subscription) SessionID() uuid.UUID {
	return s.sessionID
}

// Unsubscribe releases the channel synchronously: when it returns, no
// further events will be delivered. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}
