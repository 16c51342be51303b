package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

// ---- helpers ----

func boundSession(t *testing.T) (*Session, *cryptox.AEADKey) {
	t.Helper()
	raw, err := cryptox.GenerateRawKey()
	require.NoError(t, err)
	k, err := cryptox.NewAEADKey(raw)
	require.NoError(t, err)
	s := NewSession()
	s.bind(k)
	return s, k
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31 + i/251)
	}
	return b
}

func encodeAll(t *testing.T, data []byte, key *cryptox.AEADKey, meta ChunkMeta) []*EncryptedChunk {
	t.Helper()
	ranges := PlanChunks(int64(len(data)), ChunkSize)
	out := make([]*EncryptedChunk, len(ranges))
	for i, r := range ranges {
		c, err := EncodeChunk(data[r.Offset:r.Offset+r.Length], r.Index, len(ranges), meta, key)
		require.NoError(t, err)
		out[i] = c
	}
	return out
}

func jsonBody(t *testing.T, chunks []*EncryptedChunk) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, c := range chunks {
		require.NoError(t, WriteJSONRecord(&buf, c))
	}
	return buf.Bytes()
}

func framedBody(t *testing.T, chunks []*EncryptedChunk) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, c := range chunks {
		require.NoError(t, WriteFramedRecord(&buf, c))
	}
	return buf.Bytes()
}

func reversed(chunks []*EncryptedChunk) []*EncryptedChunk {
	out := make([]*EncryptedChunk, len(chunks))
	for i, c := range chunks {
		out[len(chunks)-1-i] = c
	}
	return out
}

func rawJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

var testLogger = logging.Discard()

// ---- fake transport ----

// fakeSender records uploaded chunks and can fail selected indices.
type fakeSender struct {
	mu       sync.Mutex
	received map[int]*EncryptedChunk
	failOn   map[int]error
	steps    int
	calls    int
}

func newFakeSender() *fakeSender {
	return &fakeSender{received: map[int]*EncryptedChunk{}, failOn: map[int]error{}, steps: 4}
}

func (f *fakeSender) UploadChunk(ctx context.Context, c *EncryptedChunk, onProgress func(sent, total int64)) (*EncryptedChunk, error) {
	f.mu.Lock()
	f.calls++
	failErr := f.failOn[c.ChunkIndex]
	f.mu.Unlock()

	total := int64(len(c.Encrypted)) + 256
	for i := 1; i <= f.steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		onProgress(total*int64(i)/int64(f.steps), total)
		// A repeated report must not produce an event.
		onProgress(total*int64(i)/int64(f.steps), total)
	}
	if failErr != nil {
		return nil, failErr
	}

	f.mu.Lock()
	f.received[c.ChunkIndex] = c
	f.mu.Unlock()
	ack := *c
	ack.Encrypted = nil
	return &ack, nil
}

// fakeOpener serves one prepared body.
type fakeOpener struct {
	body        []byte
	contentType string
	fileName    string
	fileType    string
	modified    time.Time
	wrap        func(io.Reader) io.Reader
	err         error
	opened      int
}

func (f *fakeOpener) DownloadFile(ctx context.Context, id string) (*DownloadStream, error) {
	f.opened++
	if f.err != nil {
		return nil, f.err
	}
	var r io.Reader = bytes.NewReader(f.body)
	if f.wrap != nil {
		r = f.wrap(r)
	}
	return &DownloadStream{
		Body:         io.NopCloser(r),
		ContentType:  f.contentType,
		FileName:     f.fileName,
		FileType:     f.fileType,
		LastModified: f.modified,
	}, nil
}

// fakeKeys records the wrapped keys it receives.
type fakeKeys struct {
	pemText  string
	pemErr   error
	postErr  error
	received []string
}

func (f *fakeKeys) ServerPublicKey(ctx context.Context) (string, error) {
	return f.pemText, f.pemErr
}

func (f *fakeKeys) PostSessionKey(ctx context.Context, wrapped string) error {
	f.received = append(f.received, wrapped)
	return f.postErr
}

var (
	errBoom  = errors.New("boom")
	zeroTime time.Time
)
