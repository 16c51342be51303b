// Package files stores file metadata. Size and stored chunk counts are
// aggregated from the chunks table on read.
package files

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type Repository interface {
	// Ensure creates the file row or, when it exists, checks that it
	// belongs to the same user with the same chunk count. A mismatch
	// yields common.ErrorAlreadyExists.
	Ensure(ctx context.Context, file *models.File) error
	// Get returns common.ErrorNotFound unless userID owns file id.
	Get(ctx context.Context, userID, id string) (*models.File, error)
	ListByUser(ctx context.Context, userID string) ([]*models.File, error)
	// Delete returns common.ErrorNotFound unless userID owns file id.
	Delete(ctx context.Context, userID, id string) error
}
