// Package metadata persists the client's small key/value state: the
// auth token, the server public key and the logged-in user name. The
// session key is never stored.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyAuthToken       = "auth_token"
	KeyServerPublicKey = "server_public_key"
	KeyUsername        = "username"
)

// Repository is a string key/value store. Get reports a missing key as
// ("", false, nil).
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
