package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/noah-isme/barangay-api/pkg/config"
)

// ErrObjectNotFound is returned when no object exists under a key.
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob opened for reading.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// ObjectStore persists complaint attachments.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// New returns the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "", config.StorageDriverLocal:
		return NewLocalStorage(cfg.LocalDir)
	case config.StorageDriverMinio:
		return NewMinioStorage(ctx, cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
