package memory

import (
	"sync"

	"eduquiz-service/internal/session"
)

// SessionStore is an in-memory implementation of app.SessionRepository,
// holding at most one live session per user.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
	}
}

// Swap stores s for userID and returns the session it replaced, if any.
func (st *SessionStore) Swap(userID string, s *session.Session) *session.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	prev := st.sessions[userID]
	st.sessions[userID] = s
	return prev
}

func (st *SessionStore) Get(userID string) (*session.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[userID]
	return s, ok
}

// Delete drops the session of userID if it is still s.
func (st *SessionStore) Delete(userID string, s *session.Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if cur, ok := st.sessions[userID]; ok && cur == s {
		delete(st.sessions, userID)
	}
}
