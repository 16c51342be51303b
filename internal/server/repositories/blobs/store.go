// Package blobs stores sealed chunk payloads by key, either in memory or
// in an S3-compatible bucket.
package blobs

import (
	"context"
	"fmt"
)

type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns common.ErrorNotFound for unknown keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete is a no-op for unknown keys.
	Delete(ctx context.Context, key string) error
}

// ChunkKey is the blob key of chunk index of a user's file.
func ChunkKey(userID, fileID string, index int) string {
	return fmt.Sprintf("%s/%s/%06d", userID, fileID, index)
}
