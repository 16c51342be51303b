package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Ensure(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, user_id, file_name, file_type, last_modified, total_chunks)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET updated_at = now()
			WHERE files.user_id = EXCLUDED.user_id AND files.total_chunks = EXCLUDED.total_chunks;
	`
	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.UserID, file.FileName, file.FileType, file.LastModified, file.TotalChunks)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorAlreadyExists
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

const selectFiles = `
	SELECT f.id, f.user_id, f.file_name, f.file_type, f.last_modified, f.total_chunks,
		COALESCE(SUM(c.original_size), 0), COUNT(c.idx), f.created_at, f.updated_at
	FROM files f LEFT JOIN chunks c ON c.file_id = f.id
`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	var f models.File
	err := row.Scan(&f.ID, &f.UserID, &f.FileName, &f.FileType, &f.LastModified, &f.TotalChunks,
		&f.Size, &f.StoredChunks, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.File, error) {
	query := selectFiles + `WHERE f.id = $1 AND f.user_id = $2 GROUP BY f.id`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

// ListByUser returns the files of userID, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.File, error) {
	query := selectFiles + `WHERE f.user_id = $1 GROUP BY f.id ORDER BY f.created_at, f.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM files WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}
