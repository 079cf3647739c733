// Package sessionstore implements the Session Store (C2): an in-process
// map from user id to Session, with opportunistic expiry sweeps and no
// cross-session locking (each session is a serial owner of its own turn).
package sessionstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pantry/internal/domain/session"
	"pantry/internal/logging"
)

// DefaultSessionTimeout is the idle timeout after which a session is
// auto-expired, per spec §3.
const DefaultSessionTimeout = 30 * time.Minute

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Store is the in-process session map.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	timeout  time.Duration
	now      Clock
	idgen    func() string
	logger   logging.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithTimeout overrides the idle timeout.
func WithTimeout(d time.Duration) Option { return func(s *Store) { s.timeout = d } }

// WithClock overrides the time source (tests).
func WithClock(c Clock) Option { return func(s *Store) { s.now = c } }

// WithIDGenerator overrides session id generation (tests).
func WithIDGenerator(fn func() string) Option { return func(s *Store) { s.idgen = fn } }

// NewStore builds an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*session.Session),
		timeout:  DefaultSessionTimeout,
		now:      time.Now,
		idgen:    defaultIDGenerator,
		logger:   logging.NewNamed("Session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the session for userID, creating one if absent or
// expired. The sweep runs opportunistically on every access.
func (s *Store) GetOrCreate(userID, authToken string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if sess, ok := s.sessions[userID]; ok {
		sess.Touch(now)
		return sess
	}

	sess := session.New(s.idgen(), authToken, now)
	s.sessions[userID] = sess
	return sess
}

// Get looks up an existing session without creating one.
func (s *Store) Get(userID string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Clear removes a user's session, e.g. on explicit user request.
func (s *Store) Clear(userID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; ok {
		s.logger.Info("clearing session for %s: %s", userID, reason)
		delete(s.sessions, userID)
	}
}

// ClearHistory truncates a session's operation history without dropping
// the session itself.
func (s *Store) ClearHistory(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.OperationHistory = nil
	}
}

// SweepExpired drops every session idle past the timeout. It is
// idempotent and safe to call on any schedule; GetOrCreate/Get already
// invoke it opportunistically.
func (s *Store) SweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
}

func (s *Store) sweepLocked(now time.Time) {
	for id, sess := range s.sessions {
		if sess.Expired(s.timeout, now) {
			delete(s.sessions, id)
		}
	}
}

// All returns a snapshot of every live session, for operational
// endpoints (GET /session/all).
func (s *Store) All() []*session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	out := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// ClearAll drops every session (POST /session/clear-all).
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*session.Session)
}

func defaultIDGenerator() string {
	return "sess_" + uuid.NewString()
}
