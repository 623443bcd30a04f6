package redis

import (
	"context"
	"sync"
	"time"

	"eduquiz-service/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves stay in process; Redis holds a liveness marker per user
// (eduquiz:session:{userID}) naming the quiz being played. The marker expires
// after ttl without activity and is removed when the attempt ends.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	log      *logrus.Entry
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		log:      logrus.WithField("component", "redis-sessions"),
		sessions: make(map[string]*session.Session),
	}
}

func (s *SessionStore) Swap(userID string, sess *session.Session) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sessions[userID]
	s.sessions[userID] = sess
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(userID), sess.Quiz().ID, s.ttl).Err(); err != nil {
		s.log.WithError(err).Warn("mark session live")
	}
	return prev
}

// Get returns the user's session and pushes the marker's expiry back, so an
// attempt that is still being played keeps its marker past the TTL.
func (s *SessionStore) Get(userID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if ok {
		if err := s.client.Expire(context.Background(), s.key(userID), s.ttl).Err(); err != nil {
			s.log.WithError(err).Warn("refresh session marker")
		}
	}
	return sess, ok
}

func (s *SessionStore) Delete(userID string, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[userID]
	if !ok || cur != sess {
		return
	}
	delete(s.sessions, userID)
	if err := s.client.Del(context.Background(), s.key(userID)).Err(); err != nil {
		s.log.WithError(err).Warn("clear session marker")
	}
}

func (s *SessionStore) key(userID string) string {
	return "eduquiz:session:" + userID
}
