package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
)

const (
	publicKeyBlockType  = "PUBLIC KEY"
	privateKeyBlockType = "PRIVATE KEY"
)

// ParsePublicKeyPEM decodes a PEM encoded SubjectPublicKeyInfo holding an
// RSA key. Surrounding whitespace is tolerated.
func ParsePublicKeyPEM(s string) (*rsa.PublicKey, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrMissingServerKey
	}
	block, _ := pem.Decode([]byte(strings.TrimSpace(s)))
	if block == nil || block.Type != publicKeyBlockType {
		return nil, fmt.Errorf("%w: no %q block", ErrInvalidPublicKey, publicKeyBlockType)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPublicKey)
	}
	return pub, nil
}

// MarshalPublicKeyPEM encodes pub as a PEM SubjectPublicKeyInfo.
func MarshalPublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: publicKeyBlockType, Bytes: der})), nil
}

// GenerateKeyPair creates a new RSA private key of the given size.
func GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// MarshalPrivateKeyPEM encodes priv as PEM PKCS#8.
func MarshalPrivateKeyPEM(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: privateKeyBlockType, Bytes: der}), nil
}

// ParsePrivateKeyPEM decodes a PKCS#8 RSA private key.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != privateKeyBlockType {
		return nil, fmt.Errorf("%w: no %q block", ErrInvalidPrivateKey, privateKeyBlockType)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPrivateKey)
	}
	return priv, nil
}

// WrapKey encrypts raw symmetric key material for the holder of pub using
// RSA-OAEP with SHA-256 and an empty label.
func WrapKey(pub *rsa.PublicKey, raw []byte) ([]byte, error) {
	if pub == nil {
		return nil, ErrMissingServerKey
	}
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}
	return wrapped, nil
}

// UnwrapKey reverses WrapKey.
func UnwrapKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	raw, err := rsa.DecryptOAEP(sha256.New(), nil, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap key: %w", err)
	}
	return raw, nil
}
