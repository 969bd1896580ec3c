package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Metalzoid/mon-view-grimoire-backend/internal/config"
)

// ErrNotFound is returned by Open when no image exists under the given name.
var ErrNotFound = errors.New("image not found")

// Store holds processed cover images under flat filenames. The /images
// routes stream from whichever backend is configured.
type Store interface {
	Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

func New(cfg config.StorageConfig, minioCfg config.MinIOConfig) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.ImagesDir)
	case "minio":
		return NewMinIO(minioCfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
