package postgres

import (
	"context"

	"eduquiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

// DefaultRowID names the app_data row used when none is configured.
const DefaultRowID = "default"

// Blob keeps the aggregate as JSONB in one row of app_data.
type Blob struct {
	pool *pgxpool.Pool
	id   string
}

func NewBlob(pool *pgxpool.Pool, id string) *Blob {
	if id == "" {
		id = DefaultRowID
	}
	return &Blob{pool: pool, id: id}
}

func (b *Blob) Load(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT data FROM app_data WHERE id=$1`, b.id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load app data")
	}
	return raw, nil
}

func (b *Blob) Save(ctx context.Context, blob []byte) error {
	_, err := b.pool.Exec(ctx, `
INSERT INTO app_data (id, data, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, b.id, string(blob))
	return errors.Wrap(err, "save app data")
}
