package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

// downloadAccept prefers the length-prefixed framing and still accepts
// servers that only send concatenated JSON.
var downloadAccept = common.FramedStreamContentType + ", " + common.RecordStreamContentType + ";q=0.9, application/json;q=0.5"

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	stream  *http.Client

	healthConn *grpc.ClientConn
	health     grpc_health_v1.HealthClient

	mu    sync.RWMutex
	creds Credentials
}

// NewHTTPClient prepares a client for the API at baseURL. healthAddr is
// the host:port of the gRPC health service; when empty Ping falls back to
// GET /healthz. No connection is made until the first call.
func NewHTTPClient(baseURL string, timeout time.Duration, healthAddr string) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse server url: unsupported scheme %q", u.Scheme)
	}

	// timeout bounds whole exchanges, but a download body may take longer
	// than that: the stream client only waits timeout for the headers.
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = timeout
	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Transport: tr, Timeout: timeout},
		stream:  &http.Client{Transport: tr},
	}

	if healthAddr != "" {
		conn, err := grpc.NewClient(healthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("health client: %w", err)
		}
		c.healthConn = conn
		c.health = grpc_health_v1.NewHealthClient(conn)
	}
	return c, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	if c.healthConn != nil {
		return c.healthConn.Close()
	}
	return nil
}

// SetCredentials installs (or, with nil, forgets) the token and public key.
func (c *HTTPClient) SetCredentials(creds *Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if creds == nil {
		c.creds = Credentials{}
		return
	}
	c.creds = *creds
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds.Token
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	PublicKey string `json:"public_key"`
}

// Register creates an account. The password leaves the machine only as
// its SHA-256 hex digest.
func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	body := authRequest{Username: username, Password: cryptox.HashPassword([]byte(password))}
	resp, err := c.doJSON(ctx, http.MethodPost, "/register", body, false)
	if err != nil {
		return err
	}
	return drain(resp)
}

// Login authenticates and keeps the returned token and public key for
// later calls.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*Credentials, error) {
	body := authRequest{Username: username, Password: cryptox.HashPassword([]byte(password))}
	resp, err := c.doJSON(ctx, http.MethodPost, "/login", body, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("%w: decode login response: %v", ErrRequestFailed, err)
	}
	if lr.Token == "" {
		return nil, fmt.Errorf("%w: login response without token", ErrRequestFailed)
	}

	creds := &Credentials{Token: lr.Token, PublicKey: lr.PublicKey}
	c.SetCredentials(creds)
	return creds, nil
}

func (c *HTTPClient) ListFiles(ctx context.Context) ([]models.RemoteFile, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/myFiles", nil, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var files []models.RemoteFile
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("%w: decode file list: %v", ErrRequestFailed, err)
	}
	return files, nil
}

func (c *HTTPClient) DeleteFile(ctx context.Context, id string) error {
	resp, err := c.doJSON(ctx, http.MethodDelete, "/myFiles/delete/"+url.PathEscape(id), nil, true)
	if err != nil {
		return err
	}
	return drain(resp)
}

// ServerPublicKey returns the PEM received at login.
func (c *HTTPClient) ServerPublicKey(ctx context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds.PublicKey, nil
}

func (c *HTTPClient) PostSessionKey(ctx context.Context, wrapped string) error {
	body := map[string]string{"sessionKey": wrapped}
	resp, err := c.doJSON(ctx, http.MethodPost, "/user/session-key", body, true)
	if err != nil {
		return err
	}
	return drain(resp)
}

// UploadChunk posts one chunk as a multipart form. onProgress sees the
// request body bytes handed to the connection.
func (c *HTTPClient) UploadChunk(ctx context.Context, ch *transfer.EncryptedChunk, onProgress func(sent, total int64)) (*transfer.EncryptedChunk, error) {
	body, contentType, err := chunkForm(ch)
	if err != nil {
		return nil, err
	}

	total := int64(body.Len())
	var src io.Reader = body
	if onProgress != nil {
		src = &progressReader{r: body, total: total, fn: onProgress}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/uploads/upload", src, true)
	if err != nil {
		return nil, err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ack transfer.EncryptedChunk
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("%w: decode upload response: %v", ErrRequestFailed, err)
	}
	return &ack, nil
}

// DownloadFile opens the record stream of file id. The caller owns the
// returned body.
func (c *HTTPClient) DownloadFile(ctx context.Context, id string) (*transfer.DownloadStream, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/myFiles/download/"+url.PathEscape(id), nil, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", downloadAccept)

	resp, err := c.send(c.stream, req)
	if err != nil {
		return nil, err
	}

	s := &transfer.DownloadStream{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		FileType:    resp.Header.Get(common.HeaderFileType),
	}
	if name := resp.Header.Get(common.HeaderFileName); name != "" {
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		s.FileName = name
	}
	s.LastModified = parseLastModified(resp.Header.Get(common.HeaderLastModified))
	return s, nil
}

// Ping checks that the server is up.
func (c *HTTPClient) Ping(ctx context.Context) error {
	if c.health == nil {
		resp, err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, false)
		if err != nil {
			return err
		}
		return drain(resp)
	}

	resp, err := c.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader, auth bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if auth {
		tok := c.token()
		if tok == "" {
			return nil, ErrUnauthorized
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
	}
	return req, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, payload any, auth bool) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body, auth)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

// do sends req and turns transport failures and non-2xx statuses into
// sentinel errors. On success the caller must close the body.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	return c.send(c.http, req)
}

func (c *HTTPClient) send(hc *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusError(resp)
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrUnauthorized
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrAlreadyExists
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		sentinel = ErrUnavailable
	default:
		sentinel = ErrRequestFailed
	}
	if msg == "" {
		return fmt.Errorf("%w: %s", sentinel, resp.Status)
	}
	return fmt.Errorf("%w: %s: %s", sentinel, resp.Status, msg)
}

func drain(resp *http.Response) error {
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// chunkForm renders a chunk as the multipart form accepted by
// /uploads/upload.
func chunkForm(ch *transfer.EncryptedChunk) (*bytes.Buffer, string, error) {
	iv, err := json.Marshal(ch.IV)
	if err != nil {
		return nil, "", fmt.Errorf("marshal iv: %w", err)
	}

	fields := [][2]string{
		{"iv", string(iv)},
		{"encrypted", base64.StdEncoding.EncodeToString(ch.Encrypted)},
		{"originalSize", strconv.FormatInt(ch.OriginalSize, 10)},
		{"compressedSize", strconv.FormatInt(ch.CompressedSize, 10)},
		{"encryptedSize", strconv.FormatInt(ch.EncryptedSize, 10)},
		{"chunkIndex", strconv.Itoa(ch.ChunkIndex)},
		{"totalChunks", strconv.Itoa(ch.TotalChunks)},
		{"fileId", ch.FileID},
		{"fileName", ch.FileName},
		{"fileType", ch.FileType},
		{"lastModified", strconv.FormatInt(ch.LastModified, 10)},
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("write form: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// progressReader reports how much of the request body has been consumed.
type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}

// parseLastModified accepts Unix milliseconds or an HTTP date.
func parseLastModified(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms)
	}
	if t, err := http.ParseTime(v); err == nil {
		return t
	}
	return time.Time{}
}

var _ Client = (*HTTPClient)(nil)
