package memory

import (
	"context"
	"sync"

	"eduquiz-service/internal/domain"
)

// TokenStore keeps the logged-in user for the lifetime of the process.
type TokenStore struct {
	mu   sync.RWMutex
	user *domain.User
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

func (s *TokenStore) Load(_ context.Context) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false, nil
	}
	return *s.user, true, nil
}

func (s *TokenStore) Save(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	return nil
}

func (s *TokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}
