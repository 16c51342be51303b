// Package chunks stores per-chunk metadata. Payloads live in the blob store.
package chunks

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type Repository interface {
	// Put records chunk, replacing a previous record with the same index.
	Put(ctx context.Context, chunk *models.Chunk) error
	// ListByFile returns the chunks of fileID ordered by index.
	ListByFile(ctx context.Context, fileID string) ([]*models.Chunk, error)
	DeleteByFile(ctx context.Context, fileID string) error
}
