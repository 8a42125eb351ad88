package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("result not found")

// ResultStore archives generated images under a key.
type ResultStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Key returns the archive key for a result id.
func Key(resultID string) string {
	return resultID + ".jpg"
}
