package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/chunks"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/files"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out process-wide in-memory repositories and
// ignores the db argument. It backs a server started without a DSN.
type MemoryRepositoryManager struct {
	users  *users.MemoryRepository
	files  *files.MemoryRepository
	chunks *chunks.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	c := chunks.NewMemoryRepository()
	return &MemoryRepositoryManager{
		users:  users.NewMemoryRepository(),
		files:  files.NewMemoryRepository(c),
		chunks: c,
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) Files(dbx.DBTX) files.Repository { return m.files }

func (m *MemoryRepositoryManager) Chunks(dbx.DBTX) chunks.Repository { return m.chunks }
