package repository

import (
	"context"
	"io"
)

// ObjectStorage is the blob store behind the storage upload transport.
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string, meta map[string]string) error
	Exists(ctx context.Context, key string) (bool, error)
}
