package client

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

// Client is the client's view of the GophDrive server.
type Client interface {
	transfer.Transport

	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*Credentials, error)
	SetCredentials(c *Credentials)
	ListFiles(ctx context.Context) ([]models.RemoteFile, error)
	DeleteFile(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Credentials is what a successful login hands back.
type Credentials struct {
	Token     string
	PublicKey string
}
