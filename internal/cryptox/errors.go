package cryptox

import "errors"

var (
	// ErrKeyNotSet is returned when a seal/open is attempted without a key.
	ErrKeyNotSet = errors.New("session key not set")

	// ErrAuthentication is returned when an AEAD tag does not verify, i.e.
	// the nonce, ciphertext or key does not match what was sealed.
	ErrAuthentication = errors.New("authentication failed")

	// ErrInvalidKeySize is returned for symmetric keys that are not 32 bytes.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrMissingServerKey is returned when no server public key material
	// is available.
	ErrMissingServerKey = errors.New("server public key missing")

	// ErrInvalidPublicKey is returned when the PEM block is not an RSA
	// SubjectPublicKeyInfo.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidPrivateKey is returned when a private key PEM cannot be parsed.
	ErrInvalidPrivateKey = errors.New("invalid private key")
)
