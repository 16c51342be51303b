package transfer

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

// Negotiator establishes the session key shared with the server.
type Negotiator struct {
	keys   KeyExchange
	logger logging.Logger
}

func NewNegotiator(keys KeyExchange, logger logging.Logger) *Negotiator {
	return &Negotiator{keys: keys, logger: logger}
}

// ObtainServerPublicKey fetches and parses the server's RSA public key.
func (n *Negotiator) ObtainServerPublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	pemText, err := n.keys.ServerPublicKey(ctx)
	if err != nil {
		return nil, err
	}
	return cryptox.ParsePublicKeyPEM(pemText)
}

// GenerateSessionKey returns a fresh random 256-bit key.
func (n *Negotiator) GenerateSessionKey() ([]byte, error) {
	return cryptox.GenerateRawKey()
}

// WrapSessionKey encrypts raw for pub and returns it base64 encoded.
func (n *Negotiator) WrapSessionKey(raw []byte, pub *rsa.PublicKey) (string, error) {
	wrapped, err := cryptox.WrapKey(pub, raw)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// Negotiate replaces the key of s with a new one acknowledged by the
// server. s is unbound for the whole exchange and stays unbound if any
// step fails.
func (n *Negotiator) Negotiate(ctx context.Context, s *Session) error {
	s.Close()

	pub, err := n.ObtainServerPublicKey(ctx)
	if err != nil {
		return n.fail(ctx, "obtain server key", err)
	}

	raw, err := n.GenerateSessionKey()
	if err != nil {
		return n.fail(ctx, "generate key", err)
	}
	defer common.WipeByteArray(raw)

	key, err := cryptox.NewAEADKey(raw)
	if err != nil {
		return n.fail(ctx, "build key", err)
	}

	wrapped, err := n.WrapSessionKey(raw, pub)
	if err != nil {
		return n.fail(ctx, "wrap key", err)
	}

	if err := n.keys.PostSessionKey(ctx, wrapped); err != nil {
		return n.fail(ctx, "post key", err)
	}

	s.bind(key)
	n.logger.Info(ctx, "session key negotiated")
	return nil
}

func (n *Negotiator) fail(ctx context.Context, step string, err error) error {
	n.logger.Warn(ctx, "session key negotiation failed", "step", step, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrNegotiationFailed, step, err)
}
