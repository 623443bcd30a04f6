// Package file persists the aggregate and the logged-in user as JSON files
// on local disk.
package file

import (
	"context"
	"os"
	"path/filepath"

	"eduquiz-service/internal/domain"
	"github.com/pkg/errors"
)

// Blob is a store.Backend backed by a single JSON file.
type Blob struct {
	path string
}

func NewBlob(path string) *Blob {
	return &Blob{path: path}
}

func (b *Blob) Load(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", b.path)
	}
	return raw, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the target, so readers never observe a partial write.
func (b *Blob) Save(_ context.Context, blob []byte) error {
	return writeAtomic(b.path, blob)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "replace %s", path)
}
