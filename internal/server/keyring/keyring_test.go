package keyring

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
)

const testBits = 1024

func TestLoadOrGenerate_PersistsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "server.pem")

	first, err := LoadOrGenerate(path, testBits)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	second, err := LoadOrGenerate(path, testBits)
	require.NoError(t, err)
	assert.Equal(t, first.PublicKeyPEM(), second.PublicKeyPEM())
}

func TestLoadOrGenerate_InMemory(t *testing.T) {
	k, err := LoadOrGenerate("", testBits)
	require.NoError(t, err)

	_, err = cryptox.ParsePublicKeyPEM(k.PublicKeyPEM())
	require.NoError(t, err)
}

func TestLoadOrGenerate_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.pem")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, err := LoadOrGenerate(path, testBits)
	assert.ErrorIs(t, err, cryptox.ErrInvalidPrivateKey)
}

func TestUnwrap(t *testing.T) {
	k, err := LoadOrGenerate("", testBits)
	require.NoError(t, err)
	pub, err := cryptox.ParsePublicKeyPEM(k.PublicKeyPEM())
	require.NoError(t, err)

	raw, err := cryptox.GenerateRawKey()
	require.NoError(t, err)
	wrapped, err := cryptox.WrapKey(pub, raw)
	require.NoError(t, err)

	key, err := k.Unwrap(base64.StdEncoding.EncodeToString(wrapped))
	require.NoError(t, err)

	clientKey, err := cryptox.NewAEADKey(raw)
	require.NoError(t, err)
	nonce, ct, err := cryptox.Seal(clientKey, []byte("hello"))
	require.NoError(t, err)
	pt, err := cryptox.Open(key, nonce, ct)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))
}

func TestUnwrap_Rejects(t *testing.T) {
	k, err := LoadOrGenerate("", testBits)
	require.NoError(t, err)
	pub, _ := cryptox.ParsePublicKeyPEM(k.PublicKeyPEM())
	short, err := cryptox.WrapKey(pub, []byte("too short"))
	require.NoError(t, err)

	for name, in := range map[string]string{
		"not base64":   "%%%",
		"not wrapped":  base64.StdEncoding.EncodeToString([]byte("plain")),
		"wrong length": base64.StdEncoding.EncodeToString(short),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := k.Unwrap(in)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}
