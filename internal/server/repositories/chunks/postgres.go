package chunks

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Put(ctx context.Context, chunk *models.Chunk) error {
	query := `
		INSERT INTO chunks (file_id, idx, original_size, compressed_size, blob_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (file_id, idx)
		DO UPDATE SET original_size = EXCLUDED.original_size,
			compressed_size = EXCLUDED.compressed_size,
			blob_key = EXCLUDED.blob_key,
			created_at = now();
	`
	_, err := r.db.ExecContext(ctx, query,
		chunk.FileID, chunk.Index, chunk.OriginalSize, chunk.CompressedSize, chunk.BlobKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]*models.Chunk, error) {
	query := `
		SELECT file_id, idx, original_size, compressed_size, blob_key, created_at
		FROM chunks WHERE file_id = $1 ORDER BY idx
	`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select chunks: %w", err)
	}
	defer rows.Close()

	var result []*models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.FileID, &c.Index, &c.OriginalSize, &c.CompressedSize, &c.BlobKey, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByFile(ctx context.Context, fileID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}
