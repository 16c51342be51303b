package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/keyring"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/blobs"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/dmitrijs2005/gophdrive/internal/server/sessions"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

type testEnv struct {
	srv *httptest.Server
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	keys, err := keyring.LoadOrGenerate("", 1024)
	require.NoError(t, err)

	reg := sessions.NewRegistry()
	m := repomanager.NewMemoryRepositoryManager()
	cfg := &config.Config{SecretKey: "k", TokenValidityDuration: time.Hour, StorageSecret: "s"}
	us := services.NewUserService(nil, m, keys, reg, cfg, logging.Discard())
	fs := services.NewFileService(nil, m, blobs.NewMemoryStore(), reg, cfg, logging.Discard())

	srv := httptest.NewServer(NewHandler(us, fs, logging.Discard()).Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) postJSON(t *testing.T, path, token string, v any) *http.Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return e.do(t, http.MethodPost, path, token, bytes.NewReader(data),
		http.Header{"Content-Type": {"application/json"}})
}

// login registers user, logs in and registers a fresh session key.
func (e *testEnv) login(t *testing.T, user string) (string, *cryptox.AEADKey) {
	t.Helper()
	creds := map[string]string{"username": user, "password": cryptox.HashPassword([]byte("pw"))}
	resp := e.postJSON(t, "/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.postJSON(t, "/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lr loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))

	pub, err := cryptox.ParsePublicKeyPEM(lr.PublicKey)
	require.NoError(t, err)
	raw, err := cryptox.GenerateRawKey()
	require.NoError(t, err)
	wrapped, err := cryptox.WrapKey(pub, raw)
	require.NoError(t, err)
	key, err := cryptox.NewAEADKey(raw)
	require.NoError(t, err)

	resp = e.postJSON(t, "/user/session-key", lr.Token,
		map[string]string{"sessionKey": base64.StdEncoding.EncodeToString(wrapped)})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	return lr.Token, key
}

func encodeFile(t *testing.T, data []byte, fileID string, key *cryptox.AEADKey) []*transfer.EncryptedChunk {
	t.Helper()
	ranges := transfer.PlanChunks(int64(len(data)), transfer.ChunkSize)
	meta := transfer.ChunkMeta{FileID: fileID, FileName: "report 1.pdf", FileType: "application/pdf", LastModified: 1700000000000}
	out := make([]*transfer.EncryptedChunk, len(ranges))
	for i, r := range ranges {
		c, err := transfer.EncodeChunk(data[r.Offset:r.Offset+r.Length], r.Index, len(ranges), meta, key)
		require.NoError(t, err)
		out[i] = c
	}
	return out
}

// chunkForm renders c as an upload form. commaIV sends the IV the way a
// browser stringifies a byte array.
func chunkForm(t *testing.T, c *transfer.EncryptedChunk, commaIV bool) (*bytes.Buffer, string) {
	t.Helper()
	iv, err := json.Marshal(c.IV)
	require.NoError(t, err)
	ivField := string(iv)
	if commaIV {
		ivField = string(iv[1 : len(iv)-1])
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range map[string]string{
		"iv":             ivField,
		"encrypted":      base64.StdEncoding.EncodeToString(c.Encrypted),
		"originalSize":   strconv.FormatInt(c.OriginalSize, 10),
		"compressedSize": strconv.FormatInt(c.CompressedSize, 10),
		"encryptedSize":  strconv.FormatInt(c.EncryptedSize, 10),
		"chunkIndex":     strconv.Itoa(c.ChunkIndex),
		"totalChunks":    strconv.Itoa(c.TotalChunks),
		"fileId":         c.FileID,
		"fileName":       c.FileName,
		"fileType":       c.FileType,
		"lastModified":   strconv.FormatInt(c.LastModified, 10),
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func (e *testEnv) uploadForm(t *testing.T, token string, c *transfer.EncryptedChunk, commaIV bool) *http.Response {
	t.Helper()
	body, ct := chunkForm(t, c, commaIV)
	return e.do(t, http.MethodPost, "/uploads/upload", token, body, http.Header{"Content-Type": {ct}})
}
