// Package keyring holds the server RSA key pair used to unwrap client
// session keys.
package keyring

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/filex"
)

// DefaultBits is the modulus size of generated keys.
const DefaultBits = 2048

type Keyring struct {
	priv   *rsa.PrivateKey
	pubPEM string
}

// LoadOrGenerate reads a PKCS#8 PEM private key from path. When the file
// does not exist a new key of the given size is generated and saved there.
// An empty path keeps a generated key in memory only.
func LoadOrGenerate(path string, bits int) (*Keyring, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			priv, err := cryptox.ParsePrivateKeyPEM(data)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			return New(priv)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read key: %w", err)
		}
	}

	priv, err := cryptox.GenerateKeyPair(bits)
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := cryptox.MarshalPrivateKeyPEM(priv)
		if err != nil {
			return nil, err
		}
		if err := filex.EnsureDir(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
			return nil, err
		}
	}
	return New(priv)
}

func New(priv *rsa.PrivateKey) (*Keyring, error) {
	pub, err := cryptox.MarshalPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Keyring{priv: priv, pubPEM: pub}, nil
}

// PublicKeyPEM is the SPKI PEM handed to clients at login.
func (k *Keyring) PublicKeyPEM() string {
	return k.pubPEM
}

// Unwrap decodes a base64 RSA-OAEP wrapped session key and returns it as
// an AES-GCM key. Malformed input yields common.ErrorValidation.
func (k *Keyring) Unwrap(wrapped string) (*cryptox.AEADKey, error) {
	ct, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: session key is not base64", common.ErrorValidation)
	}
	raw, err := cryptox.UnwrapKey(k.priv, ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	defer common.WipeByteArray(raw)

	key, err := cryptox.NewAEADKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return key, nil
}
