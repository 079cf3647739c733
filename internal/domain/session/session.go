// Package session defines the per-user session domain model: inventory
// snapshot, bounded operation history, and pending confirmation context.
package session

import (
	"sync"
	"time"

	"pantry/internal/domain/task"
)

// InventoryRecord is one domain record in a user's inventory snapshot.
type InventoryRecord struct {
	ID        string
	Name      string
	Quantity  float64
	Unit      string
	CreatedAt time.Time
}

// HistoryEntry records one operation against the session's inventory.
// Before is captured at the time the operation starts; After is patched
// in once the turn completes.
type HistoryEntry struct {
	Kind      string
	Details   map[string]any
	Before    []InventoryRecord
	After     []InventoryRecord
	Timestamp time.Time
}

// ConfirmationContext is the bundle of state parked on a session while
// the executor awaits the user's disambiguating reply.
type ConfirmationContext struct {
	OriginalTask        *task.Task
	// Type mirrors ambiguity.Kind as a plain string to avoid an import
	// cycle (ambiguity already depends on this package for
	// InventoryRecord).
	Type                string
	ItemName            string
	CandidateItems      []InventoryRecord
	// ExecutedTasks are the tasks the plan already completed before the
	// ambiguous task was reached. They are carried into the resumed plan
	// untouched (spec §4.6 Resumption: "EXECUTED untouched") so that a
	// remaining task's result reference into one of them still resolves.
	ExecutedTasks       []*task.Task
	RemainingTaskChain  []*task.Task
	Options             []string
	IssuedAt            time.Time
}

// Expired reports whether the confirmation has outlived its timeout.
func (c *ConfirmationContext) Expired(timeout time.Duration, now time.Time) bool {
	return now.Sub(c.IssuedAt) > timeout
}

// HistoryCapacity is the hard ring-buffer size for operation_history.
const HistoryCapacity = 10

// Session is per-user in-memory state. Access is single-threaded within
// a user turn; the handler boundary serialises concurrent turns for the
// same user, so Session itself does not need internal locking for the
// fields below, only the mutex protecting PendingConfirmation swaps that
// can race with the Progress Stream Hub's read-only lookups.
type Session struct {
	mu sync.Mutex

	ID                  string
	CreatedAt           time.Time
	LastActivity        time.Time
	InventorySnapshot   []InventoryRecord
	OperationHistory    []HistoryEntry
	PendingConfirmation *ConfirmationContext
	AuthToken           string
}

// New creates a fresh session for userID's auth token.
func New(id, authToken string, now time.Time) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActivity: now,
		AuthToken:    authToken,
	}
}

// Touch records activity, resetting the expiry clock.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = now
}

// Expired reports whether the session has been idle past timeout.
func (s *Session) Expired(timeout time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.LastActivity) > timeout
}

// RecordHistory appends an entry, dropping the oldest on overflow so the
// history never exceeds HistoryCapacity entries.
func (s *Session) RecordHistory(entry HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OperationHistory = append(s.OperationHistory, entry)
	if over := len(s.OperationHistory) - HistoryCapacity; over > 0 {
		s.OperationHistory = s.OperationHistory[over:]
	}
}

// PatchLastHistoryAfter updates the After snapshot of the most recent
// history entry once the turn that produced it completes.
func (s *Session) PatchLastHistoryAfter(after []InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.OperationHistory) == 0 {
		return
	}
	s.OperationHistory[len(s.OperationHistory)-1].After = after
}

// SetPendingConfirmation parks or clears the confirmation context.
func (s *Session) SetPendingConfirmation(ctx *ConfirmationContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PendingConfirmation = ctx
}

// TakePendingConfirmation atomically reads and clears the pending
// confirmation, for consumption by the Confirmation Processor.
func (s *Session) TakePendingConfirmation() *ConfirmationContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := s.PendingConfirmation
	s.PendingConfirmation = nil
	return ctx
}

// Snapshot returns a copy of the current inventory for callers that must
// not observe concurrent mutation (e.g. the Ambiguity Detector).
func (s *Session) Snapshot() []InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]InventoryRecord, len(s.InventorySnapshot))
	copy(out, s.InventorySnapshot)
	return out
}

// SetInventory replaces the inventory snapshot wholesale (e.g. after a
// list-inventory tool call refreshes it).
func (s *Session) SetInventory(records []InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InventorySnapshot = records
}
