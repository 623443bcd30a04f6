package redis

import (
	"context"

	"eduquiz-service/internal/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultDataKey holds the serialized aggregate when no key is configured.
const DefaultDataKey = "eduquiz:data"

// Blob is a store.Backend keeping the aggregate under a single Redis key.
type Blob struct {
	client *redis.Client
	key    string
}

func NewBlob(client *redis.Client, key string) *Blob {
	if key == "" {
		key = DefaultDataKey
	}
	return &Blob{client: client, key: key}
}

func (b *Blob) Load(ctx context.Context) ([]byte, error) {
	raw, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", b.key)
	}
	return raw, nil
}

func (b *Blob) Save(ctx context.Context, blob []byte) error {
	return errors.Wrapf(b.client.Set(ctx, b.key, blob, 0).Err(), "set %s", b.key)
}
