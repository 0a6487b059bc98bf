package player

import (
	"sync"

	"go.uber.org/zap"
)

// SessionManager tracks connected sessions by session ID.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewSessionManager creates an empty SessionManager.
func NewSessionManager(logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Register adds a session, closing any previous session for the account.
func (sm *SessionManager) Register(s *Session) {
	sm.mu.Lock()
	var stale *Session
	for id, old := range sm.sessions {
		if old.AccountID == s.AccountID {
			stale = old
			delete(sm.sessions, id)
			break
		}
	}
	sm.sessions[s.SessionID] = s
	sm.mu.Unlock()

	if stale != nil {
		sm.logger.Info("closing duplicate session",
			zap.Int64("account_id", s.AccountID))
		stale.Close()
	}
}

// Unregister removes a session by ID.
func (sm *SessionManager) Unregister(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sessionID)
}

// Get returns the session with the given ID, or nil.
func (sm *SessionManager) Get(sessionID string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[sessionID]
}

// Count returns the number of connected sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// All returns a snapshot of every session.
func (sm *SessionManager) All() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	return out
}

// CloseAll closes every session (server shutdown).
func (sm *SessionManager) CloseAll() {
	for _, s := range sm.All() {
		s.Close()
	}
}
