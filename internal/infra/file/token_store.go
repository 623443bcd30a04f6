package file

import (
	"context"
	"encoding/json"
	"os"

	"eduquiz-service/internal/domain"
	"github.com/pkg/errors"
)

// TokenStore remembers the logged-in user between CLI invocations.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

func (s *TokenStore) Load(_ context.Context) (domain.User, bool, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, errors.Wrapf(err, "read %s", s.path)
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, false, errors.Wrap(err, "decode current user")
	}
	return user, true, nil
}

func (s *TokenStore) Save(_ context.Context, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encode current user")
	}
	return writeAtomic(s.path, raw)
}

func (s *TokenStore) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove %s", s.path)
	}
	return nil
}
