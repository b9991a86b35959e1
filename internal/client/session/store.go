package session

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Store is the single source of truth for the current session. Login and
// Logout mutate the persisted mirror before returning, so by the time either
// call returns the durable record reflects the new state.
//
// Construct one Store per program and pass it explicitly; there is no
// package-level instance.
type Store struct {
	mu      sync.RWMutex
	current *Session
	ready   bool

	persisted PersistedStore
	logger    *slog.Logger
}

func NewStore(persisted PersistedStore, logger *slog.Logger) *Store {
	return &Store{
		persisted: persisted,
		logger:    logger,
	}
}

// Login replaces the session wholesale and writes the persisted mirror.
// The caller is expected to hand in a server-issued, fully-populated session.
// Persistence failures are logged, not surfaced: the in-memory session is
// still live and the worst case is a re-login after restart.
func (s *Store) Login(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := sess
	s.current = &cp
	s.persist(&cp)
}

// Logout clears the session and removes the persisted record. Calling it
// while logged out is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.persisted.Delete(); err != nil {
		s.logger.Warn("session delete failed", "error", err)
	}
}

// Read returns the current session, or nil when logged out. Never touches
// the persisted store.
func (s *Store) Read() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Ready reports whether startup restoration has completed. Until then no
// consumer may branch on the session value.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// set installs a restored session and flips the readiness flag in one step,
// so no reader can observe the terminal session value before readiness.
func (s *Store) set(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = sess
	s.ready = true
}

// persist serializes under the store's fixed key. Callers hold s.mu.
func (s *Store) persist(sess *Session) {
	raw, err := json.Marshal(sess)
	if err != nil {
		s.logger.Warn("session encode failed", "error", err)
		return
	}
	if err := s.persisted.Write(raw); err != nil {
		s.logger.Warn("session write failed", "error", err)
	}
}
