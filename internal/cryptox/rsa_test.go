package cryptox

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicKeyPEM_RoundTrip(t *testing.T) {
	priv, err := GenerateKeyPair(2048)
	require.NoError(t, err)

	s, err := MarshalPublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)
	require.Contains(t, s, "-----BEGIN PUBLIC KEY-----")

	pub, err := ParsePublicKeyPEM("\n  " + s + "  \n")
	require.NoError(t, err)
	require.True(t, priv.PublicKey.Equal(pub))
}

func TestParsePublicKeyPEM_Errors(t *testing.T) {
	_, err := ParsePublicKeyPEM("   ")
	require.ErrorIs(t, err, ErrMissingServerKey)

	_, err = ParsePublicKeyPEM("not a pem")
	require.ErrorIs(t, err, ErrInvalidPublicKey)

	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&ec.PublicKey)
	require.NoError(t, err)
	ecPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	_, err = ParsePublicKeyPEM(ecPEM)
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestPrivateKeyPEM_RoundTrip(t *testing.T) {
	priv, err := GenerateKeyPair(2048)
	require.NoError(t, err)

	b, err := MarshalPrivateKeyPEM(priv)
	require.NoError(t, err)

	got, err := ParsePrivateKeyPEM(b)
	require.NoError(t, err)
	require.True(t, priv.Equal(got))

	_, err = ParsePrivateKeyPEM([]byte("garbage"))
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestWrapUnwrap(t *testing.T) {
	priv, err := GenerateKeyPair(2048)
	require.NoError(t, err)

	raw, err := GenerateRawKey()
	require.NoError(t, err)

	wrapped, err := WrapKey(&priv.PublicKey, raw)
	require.NoError(t, err)
	require.Len(t, wrapped, 256)

	got, err := UnwrapKey(priv, wrapped)
	require.NoError(t, err)
	require.Equal(t, raw, got)

	wrapped[0] ^= 0xFF
	_, err = UnwrapKey(priv, wrapped)
	require.Error(t, err)
}

func TestWrapKey_NilPublicKey(t *testing.T) {
	_, err := WrapKey(nil, []byte("k"))
	require.ErrorIs(t, err, ErrMissingServerKey)
}
