package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// HashPassword returns the lowercase hex SHA-256 of password. The client
// never sends the clear password; the server only ever sees this digest.
func HashPassword(password []byte) string {
	sum := sha256.Sum256(password)
	return hex.EncodeToString(sum[:])
}

// MakeVerifier stretches the client password digest with Argon2id so the
// stored verifier is expensive to brute force.
func MakeVerifier(passwordHash string, salt []byte) []byte {
	return argon2.IDKey([]byte(passwordHash), salt, 1, 64*1024, 4, 32)
}

// DeriveStorageKey derives a 32-byte key from a server secret with HKDF
// (SHA-256). Different info strings yield independent keys.
func DeriveStorageKey(secret []byte, info string) (*AEADKey, error) {
	raw := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	defer common.WipeByteArray(raw)
	return NewAEADKey(raw)
}
