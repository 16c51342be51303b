package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/keyring"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/blobs"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/chunks"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/files"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophdrive/internal/server/sessions"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", TokenValidityDuration: time.Hour, StorageSecret: "s"}
}

type fixture struct {
	keys     *keyring.Keyring
	sessions *sessions.Registry
	blobs    *blobs.MemoryStore
	manager  *repomanager.MemoryRepositoryManager
	users    *UserService
	files    *FileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys, err := keyring.LoadOrGenerate("", 1024)
	require.NoError(t, err)

	f := &fixture{
		keys:     keys,
		sessions: sessions.NewRegistry(),
		blobs:    blobs.NewMemoryStore(),
		manager:  repomanager.NewMemoryRepositoryManager(),
	}
	f.users = NewUserService(nil, f.manager, f.keys, f.sessions, testConfig(), logging.Discard())
	f.files = NewFileService(nil, f.manager, f.blobs, f.sessions, testConfig(), logging.Discard())
	return f
}

func newKey(t *testing.T) *cryptox.AEADKey {
	t.Helper()
	raw, err := cryptox.GenerateRawKey()
	require.NoError(t, err)
	k, err := cryptox.NewAEADKey(raw)
	require.NoError(t, err)
	return k
}

// encode builds the chunks of data the way an uploading client does.
func encode(t *testing.T, data []byte, fileID string, key *cryptox.AEADKey) []*transfer.EncryptedChunk {
	t.Helper()
	ranges := transfer.PlanChunks(int64(len(data)), transfer.ChunkSize)
	meta := transfer.ChunkMeta{FileID: fileID, FileName: "data.bin", FileType: "application/octet-stream", LastModified: 1700000000000}

	out := make([]*transfer.EncryptedChunk, len(ranges))
	for i, r := range ranges {
		c, err := transfer.EncodeChunk(data[r.Offset:r.Offset+r.Length], r.Index, len(ranges), meta, key)
		require.NoError(t, err)
		out[i] = c
	}
	return out
}

// stubManager lets a test swap single repositories.
type stubManager struct {
	repomanager.RepositoryManager
	users  users.Repository
	files  files.Repository
	chunks chunks.Repository
}

func (m *stubManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *stubManager) Users(db dbx.DBTX) users.Repository {
	if m.users != nil {
		return m.users
	}
	return m.RepositoryManager.Users(db)
}

func (m *stubManager) Files(db dbx.DBTX) files.Repository {
	if m.files != nil {
		return m.files
	}
	return m.RepositoryManager.Files(db)
}

func (m *stubManager) Chunks(db dbx.DBTX) chunks.Repository {
	if m.chunks != nil {
		return m.chunks
	}
	return m.RepositoryManager.Chunks(db)
}

// failingChunks rejects every Put and reads through to Repository.
type failingChunks struct {
	chunks.Repository
	err error
}

func (f *failingChunks) Put(context.Context, *models.Chunk) error { return f.err }

type failingUsers struct{ err error }

func (f failingUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, f.err }

func (f failingUsers) GetUserByLogin(context.Context, string) (*models.User, error) {
	return nil, f.err
}
