// Package cryptox contains the cryptographic primitives used by GophDrive:
// AES-256-GCM sealing with per-call random nonces, RSA-OAEP (SHA-256) key
// wrapping with PEM encoded keys, and password / storage key derivation.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes (96 bits).
	NonceSize = 12
	// TagSize is the GCM authentication tag length in bytes (128 bits).
	TagSize = 16
)

// Nonce is a GCM nonce. A fixed-size array marshals to JSON as an array
// of numbers, which is the on-wire form of a chunk IV.
type Nonce [NonceSize]byte

// AEADKey is an immutable AES-256-GCM key. The raw key bytes are not
// retained after construction. cipher.AEAD is safe for concurrent use, so
// one AEADKey may seal and open many chunks in parallel.
type AEADKey struct {
	aead cipher.AEAD
}

// NewAEADKey builds a key from 32 raw bytes. The caller keeps ownership
// of raw and should wipe it afterwards.
func NewAEADKey(raw []byte) (*AEADKey, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(raw))
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &AEADKey{aead: aead}, nil
}

// GenerateRawKey returns KeySize bytes from crypto/rand.
func GenerateRawKey() ([]byte, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return raw, nil
}

// Seal encrypts plaintext under k with a fresh random nonce and returns
// the nonce and the ciphertext with the tag appended.
//
// Random 96-bit nonces keep the collision probability negligible for up
// to 2^32 messages per key, far above any realistic per-session volume.
func Seal(k *AEADKey, plaintext []byte) (Nonce, []byte, error) {
	var nonce Nonce
	if k == nil || k.aead == nil {
		return nonce, nil, ErrKeyNotSet
	}
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, nil, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, k.aead.Seal(nil, nonce[:], plaintext, nil), nil
}

// Open verifies and decrypts ciphertext. Any tag mismatch is reported as
// ErrAuthentication and no plaintext is returned.
func Open(k *AEADKey, nonce Nonce, ciphertext []byte) ([]byte, error) {
	if k == nil || k.aead == nil {
		return nil, ErrKeyNotSet
	}
	if len(ciphertext) < TagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", ErrAuthentication)
	}
	plaintext, err := k.aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
