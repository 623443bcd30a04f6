package memory

import (
	"context"
	"sync"

	"eduquiz-service/internal/domain"
)

// Blob is an in-process store.Backend. Nothing survives a restart.
type Blob struct {
	mu    sync.RWMutex
	data  []byte
	saved bool
	saves int
}

func NewBlob() *Blob {
	return &Blob{}
}

// NewBlobWith starts with an existing serialized aggregate.
func NewBlobWith(data []byte) *Blob {
	return &Blob{data: append([]byte(nil), data...), saved: true}
}

func (b *Blob) Load(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.saved {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), b.data...), nil
}

func (b *Blob) Save(_ context.Context, blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), blob...)
	b.saved = true
	b.saves++
	return nil
}

// Saves reports how many times the blob has been written.
func (b *Blob) Saves() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}
