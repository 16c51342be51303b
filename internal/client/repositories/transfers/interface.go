package transfers

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
)

// Repository records transfers.
type Repository interface {
	// Start inserts t as pending, replacing any earlier record with the
	// same ID and direction.
	Start(ctx context.Context, t *models.Transfer) error

	// Finish sets the final status of a transfer.
	Finish(ctx context.Context, id string, dir models.Direction, status models.TransferStatus, errMsg string) error

	// ListRecent returns up to limit transfers, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.Transfer, error)

	// FindCompletedUpload returns the completed upload of the local file
	// identified by path, size and modification time, or nil.
	FindCompletedUpload(ctx context.Context, path string, size int64, modifiedMs int64) (*models.Transfer, error)
}
