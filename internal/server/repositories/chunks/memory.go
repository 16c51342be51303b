package chunks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// MemoryRepository keeps chunks per file, keyed by index. It also serves
// as the files.ChunkStats of the in-memory file repository.
type MemoryRepository struct {
	mu     sync.RWMutex
	chunks map[string]map[int]models.Chunk
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{chunks: make(map[string]map[int]models.Chunk)}
}

func (r *MemoryRepository) Put(_ context.Context, chunk *models.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byIndex, ok := r.chunks[chunk.FileID]
	if !ok {
		byIndex = make(map[int]models.Chunk)
		r.chunks[chunk.FileID] = byIndex
	}
	c := *chunk
	c.CreatedAt = time.Now().UTC()
	byIndex[c.Index] = c
	return nil
}

func (r *MemoryRepository) ListByFile(_ context.Context, fileID string) ([]*models.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Chunk
	for _, c := range r.chunks[fileID] {
		result = append(result, &c)
	}
	slices.SortFunc(result, func(a, b *models.Chunk) int { return a.Index - b.Index })
	return result, nil
}

func (r *MemoryRepository) DeleteByFile(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.chunks, fileID)
	return nil
}

// Stats returns the summed original size and the number of chunks of fileID.
func (r *MemoryRepository) Stats(fileID string) (size int64, count int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.chunks[fileID] {
		size += c.OriginalSize
		count++
	}
	return size, count
}
