package services

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/base64"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

// ---- helpers ----

var (
	rsaOnce sync.Once
	rsaKey  *rsa.PrivateKey
	rsaPEM  string
)

func serverKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	rsaOnce.Do(func() {
		var err error
		rsaKey, err = cryptox.GenerateKeyPair(2048)
		if err != nil {
			panic(err)
		}
		rsaPEM, err = cryptox.MarshalPublicKeyPEM(&rsaKey.PublicKey)
		if err != nil {
			panic(err)
		}
	})
	return rsaKey, rsaPEM
}

func setupRepos(t *testing.T) *client.Repositories {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

// ---- fake client ----

// fakeClient is an in-process stand-in for the server. It keeps the
// negotiated key, accepts chunks and serves them back.
type fakeClient struct {
	mu sync.Mutex

	priv      *rsa.PrivateKey
	pem       string
	creds     *client.Credentials
	serverKey *cryptox.AEADKey
	files     map[string][]*transfer.EncryptedChunk

	LoginErr      error
	RegisterErr   error
	PostKeyErr    error
	PingErr       error
	CloseErr      error
	LastRegister  string
	RemoteListing []models.RemoteFile
	Deleted       []string
}

func newFakeClient(t *testing.T) *fakeClient {
	priv, pem := serverKey(t)
	return &fakeClient{priv: priv, pem: pem, files: map[string][]*transfer.EncryptedChunk{}}
}

func (f *fakeClient) Register(ctx context.Context, username, password string) error {
	f.LastRegister = username
	return f.RegisterErr
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*client.Credentials, error) {
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	c := &client.Credentials{Token: "tok-" + username, PublicKey: f.pem}
	f.SetCredentials(c)
	return c, nil
}

func (f *fakeClient) SetCredentials(c *client.Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = c
}

func (f *fakeClient) ListFiles(ctx context.Context) ([]models.RemoteFile, error) {
	return f.RemoteListing, nil
}

func (f *fakeClient) DeleteFile(ctx context.Context, id string) error {
	f.Deleted = append(f.Deleted, id)
	return nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }
func (f *fakeClient) Close() error                   { return f.CloseErr }

func (f *fakeClient) ServerPublicKey(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.creds == nil {
		return "", nil
	}
	return f.creds.PublicKey, nil
}

func (f *fakeClient) PostSessionKey(ctx context.Context, wrapped string) error {
	if f.PostKeyErr != nil {
		return f.PostKeyErr
	}
	ct, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return err
	}
	raw, err := cryptox.UnwrapKey(f.priv, ct)
	if err != nil {
		return err
	}
	k, err := cryptox.NewAEADKey(raw)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.serverKey = k
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) UploadChunk(ctx context.Context, c *transfer.EncryptedChunk, onProgress func(sent, total int64)) (*transfer.EncryptedChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := transfer.DecodeChunk(c, f.serverKey); err != nil {
		return nil, err
	}
	onProgress(int64(len(c.Encrypted)), int64(len(c.Encrypted)))
	f.files[c.FileID] = append(f.files[c.FileID], c)
	ack := *c
	return &ack, nil
}

func (f *fakeClient) DownloadFile(ctx context.Context, id string) (*transfer.DownloadStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chunks, ok := f.files[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	var buf bytes.Buffer
	for _, c := range chunks {
		if err := transfer.WriteJSONRecord(&buf, c); err != nil {
			return nil, err
		}
	}
	return &transfer.DownloadStream{Body: io.NopCloser(&buf)}, nil
}

var _ client.Client = (*fakeClient)(nil)

var testLogger logging.Logger = logging.Discard()
