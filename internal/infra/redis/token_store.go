package redis

import (
	"context"
	"encoding/json"

	"eduquiz-service/internal/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps the logged-in user under one key, shared by every client
// pointed at the same Redis.
type TokenStore struct {
	client *redis.Client
	key    string
}

func NewTokenStore(client *redis.Client, key string) *TokenStore {
	return &TokenStore{client: client, key: key + ":current-user"}
}

func (s *TokenStore) Load(ctx context.Context) (domain.User, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, errors.Wrapf(err, "get %s", s.key)
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, false, errors.Wrap(err, "decode current user")
	}
	return user, true, nil
}

func (s *TokenStore) Save(ctx context.Context, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encode current user")
	}
	return errors.Wrapf(s.client.Set(ctx, s.key, raw, 0).Err(), "set %s", s.key)
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return errors.Wrapf(s.client.Del(ctx, s.key).Err(), "del %s", s.key)
}
