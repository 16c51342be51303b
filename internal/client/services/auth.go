// Package services contains application services for the GophDrive client.
// This file defines the authentication service: login, register, restoring
// a saved login, logout and the liveness probe.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

// ErrNoSavedLogin is returned by Restore when nothing was persisted.
var ErrNoSavedLogin = errors.New("no saved login")

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate, persist token/public key/user name, negotiate a
//     session key.
//   - Restore: reuse a persisted login and negotiate a fresh session key.
//   - Logout: forget the session key and every persisted credential.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password string) error
	Restore(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client     client.Client
	meta       metadata.Repository
	session    *transfer.Session
	negotiator *transfer.Negotiator
	logger     logging.Logger
}

// NewAuthService constructs an AuthService. session is shared with the
// file service; it is bound on login and closed on logout.
func NewAuthService(c client.Client, meta metadata.Repository, session *transfer.Session, logger logging.Logger) AuthService {
	return &authService{
		client:     c,
		meta:       meta,
		session:    session,
		negotiator: transfer.NewNegotiator(c, logger),
		logger:     logger,
	}
}

// Login authenticates against the server. Credentials are persisted even
// when the following key negotiation fails, so a later Restore can retry.
func (a *authService) Login(ctx context.Context, username, password string) error {
	a.session.Close()

	creds, err := a.client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	err = a.meta.SetMany(ctx, map[string]string{
		metadata.KeyAuthToken:       creds.Token,
		metadata.KeyServerPublicKey: creds.PublicKey,
		metadata.KeyUsername:        username,
	})
	if err != nil {
		return fmt.Errorf("saving login: %w", err)
	}

	return a.negotiator.Negotiate(ctx, a.session)
}

func (a *authService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password must not be empty")
	}
	return a.client.Register(ctx, username, password)
}

// Restore loads the persisted login and negotiates a new session key.
// A rejected token wipes the persisted login.
func (a *authService) Restore(ctx context.Context) (string, error) {
	token, ok, err := a.meta.Get(ctx, metadata.KeyAuthToken)
	if err != nil {
		return "", err
	}
	if !ok || token == "" {
		return "", ErrNoSavedLogin
	}
	pem, _, err := a.meta.Get(ctx, metadata.KeyServerPublicKey)
	if err != nil {
		return "", err
	}
	username, _, err := a.meta.Get(ctx, metadata.KeyUsername)
	if err != nil {
		return "", err
	}

	a.client.SetCredentials(&client.Credentials{Token: token, PublicKey: pem})
	if err := a.negotiator.Negotiate(ctx, a.session); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.logger.Info(ctx, "saved login rejected by server", "username", username)
			_ = a.Logout(ctx)
		}
		return "", err
	}
	return username, nil
}

// Logout drops the session key and the persisted credentials.
func (a *authService) Logout(ctx context.Context) error {
	a.session.Close()
	a.client.SetCredentials(nil)
	return a.meta.Delete(ctx, metadata.KeyAuthToken, metadata.KeyServerPublicKey, metadata.KeyUsername)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	a.session.Close()
	return a.client.Close()
}
