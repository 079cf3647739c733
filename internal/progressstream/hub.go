// Package progressstream implements the Progress Stream Hub (C8): a
// process-wide fan-out from session id to subscriber channels, with
// bounded per-subscriber buffers and drop-on-full backpressure, per
// spec §4.8 and the design note in §9.
package progressstream

import (
	"sync"

	"pantry/internal/domain/events"
	"pantry/internal/logging"
)

// SubscriberBufferSize is the bounded per-subscriber channel capacity;
// a slow subscriber is dropped rather than blocking the publisher,
// since progress events are advisory, not the system of record.
const SubscriberBufferSize = 64

// Subscription is a consumable stream of events for one session.
type Subscription struct {
	ch     chan events.ProgressEvent
	hub    *Hub
	session string
	id      uint64
}

// Events returns the receive-only channel of events for this subscriber.
func (s *Subscription) Events() <-chan events.ProgressEvent { return s.ch }

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.session, s.id)
}

type subscriberSet struct {
	next uint64
	subs map[uint64]chan events.ProgressEvent
	// completed marks a session whose turn has finished; new
	// subscribers after this point receive nothing per spec §4.8
	// ("late" subscribers).
	completed bool
}

// Hub is the concurrent session-id -> subscriber-set map.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*subscriberSet
	logger   logging.Logger
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*subscriberSet), logger: logging.NewNamed("ProgressHub")}
}

// Subscribe registers a new listener for sessionID. A subscriber
// attaching after the session's turn completed (and no live subscriber
// already existed) receives a pre-closed channel: it is "late" per
// spec §4.8 and gets nothing.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[sessionID]
	if !ok {
		set = &subscriberSet{subs: make(map[uint64]chan events.ProgressEvent)}
		h.sessions[sessionID] = set
	}
	if set.completed && len(set.subs) == 0 {
		ch := make(chan events.ProgressEvent)
		close(ch)
		return &Subscription{ch: ch, hub: h, session: sessionID, id: 0}
	}

	id := set.next
	set.next++
	ch := make(chan events.ProgressEvent, SubscriberBufferSize)
	set.subs[id] = ch
	return &Subscription{ch: ch, hub: h, session: sessionID, id: id}
}

// Publish sends event to every live subscriber of sessionID, in
// publication order. A subscriber whose buffer is full is dropped
// silently rather than blocking the publisher.
func (h *Hub) Publish(sessionID string, event events.ProgressEvent) {
	h.mu.Lock()
	set, ok := h.sessions[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	for id, ch := range set.subs {
		select {
		case ch <- event:
		default:
			h.logger.Warn("subscriber buffer full for session %s, dropping subscriber", sessionID)
			close(ch)
			delete(set.subs, id)
		}
	}
	h.mu.Unlock()

	if event.Type == events.KindComplete {
		h.markCompleted(sessionID)
	}
}

// markCompleted flags the session as finished. Its entry is removed
// once every subscriber has also disconnected (spec §4.8 lifecycle).
func (h *Hub) markCompleted(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.sessions[sessionID]; ok {
		set.completed = true
		if len(set.subs) == 0 {
			delete(h.sessions, sessionID)
		}
	}
}

func (h *Hub) unsubscribe(sessionID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	if ch, ok := set.subs[id]; ok {
		close(ch)
		delete(set.subs, id)
	}
	if set.completed && len(set.subs) == 0 {
		delete(h.sessions, sessionID)
	}
}
