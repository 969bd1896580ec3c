package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/logger"
)

// Local stores images as plain files in a single directory.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{dir: dir}, nil
}

func (l *Local) path(name string) string {
	// filepath.Base strips any path components a crafted name could carry.
	return filepath.Join(l.dir, filepath.Base(name))
}

func (l *Local) Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error {
	dst, err := os.Create(l.path(name))
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, reader); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		logger.Error("local_store_save_failed", err, map[string]interface{}{"name": name})
		return err
	}
	return dst.Close()
}

func (l *Local) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	file, err := os.Open(l.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

func (l *Local) Remove(ctx context.Context, name string) error {
	err := os.Remove(l.path(name))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}
