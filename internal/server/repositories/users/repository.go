// Package users stores registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type Repository interface {
	// Create stores user and fills in its ID. A taken user name yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound for unknown names.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
