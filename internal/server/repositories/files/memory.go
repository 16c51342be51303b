package files

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// ChunkStats reports the stored size and chunk count of a file.
type ChunkStats interface {
	Stats(fileID string) (size int64, count int)
}

// MemoryRepository keeps files in a map. Aggregates come from stats.
type MemoryRepository struct {
	mu    sync.RWMutex
	files map[string]models.File
	stats ChunkStats
	now   func() time.Time
}

func NewMemoryRepository(stats ChunkStats) *MemoryRepository {
	return &MemoryRepository{files: make(map[string]models.File), stats: stats, now: time.Now}
}

func (r *MemoryRepository) Ensure(_ context.Context, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if cur, ok := r.files[file.ID]; ok {
		if cur.UserID != file.UserID || cur.TotalChunks != file.TotalChunks {
			return common.ErrorAlreadyExists
		}
		cur.UpdatedAt = now
		r.files[file.ID] = cur
		return nil
	}

	f := *file
	f.Size, f.StoredChunks = 0, 0
	f.CreatedAt, f.UpdatedAt = now, now
	r.files[file.ID] = f
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, userID, id string) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return r.withStats(f), nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.File
	for _, f := range r.files {
		if f.UserID == userID {
			result = append(result, r.withStats(f))
		}
	}
	slices.SortFunc(result, func(a, b *models.File) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *MemoryRepository) withStats(f models.File) *models.File {
	if r.stats != nil {
		f.Size, f.StoredChunks = r.stats.Stats(f.ID)
	}
	return &f
}
