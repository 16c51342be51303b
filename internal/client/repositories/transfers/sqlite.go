package transfers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

const selectColumns = `id, direction, local_path, file_name, size, modified_ms, total_chunks, status, error, updated_ms`

func (r *SQLiteRepository) Start(ctx context.Context, t *models.Transfer) error {
	query := `INSERT INTO transfers (id, direction, local_path, file_name, size, modified_ms, total_chunks, status, error, updated_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?)
			ON CONFLICT(id, direction) DO UPDATE SET
				local_path = excluded.local_path,
				file_name = excluded.file_name,
				size = excluded.size,
				modified_ms = excluded.modified_ms,
				total_chunks = excluded.total_chunks,
				status = excluded.status,
				error = '',
				updated_ms = excluded.updated_ms
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Direction, t.LocalPath, t.FileName, t.Size, toMillis(t.ModifiedAt), t.TotalChunks,
		models.TransferPending, r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to start transfer: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Finish(ctx context.Context, id string, dir models.Direction, status models.TransferStatus, errMsg string) error {
	query := `UPDATE transfers SET status = ?, error = ?, updated_ms = ? WHERE id = ? AND direction = ?`
	result, err := r.db.ExecContext(ctx, query, status, errMsg, r.now().UnixMilli(), id, dir)
	if err != nil {
		return fmt.Errorf("failed to finish transfer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return fmt.Errorf("transfer %s/%s: %w", dir, id, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]*models.Transfer, error) {
	query := `SELECT ` + selectColumns + ` FROM transfers ORDER BY updated_ms DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error selecting transfers: %w", err)
	}
	defer rows.Close()

	var result []*models.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) FindCompletedUpload(ctx context.Context, path string, size int64, modifiedMs int64) (*models.Transfer, error) {
	query := `SELECT ` + selectColumns + ` FROM transfers
		WHERE direction = ? AND status = ? AND local_path = ? AND size = ? AND modified_ms = ?
		ORDER BY updated_ms DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, models.DirectionUpload, models.TransferCompleted, path, size, modifiedMs)

	t, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(s scanner) (*models.Transfer, error) {
	var (
		t                 models.Transfer
		modified, updated int64
	)
	err := s.Scan(&t.ID, &t.Direction, &t.LocalPath, &t.FileName, &t.Size, &modified, &t.TotalChunks, &t.Status, &t.Error, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transfer: %w", err)
	}
	t.ModifiedAt = fromMillis(modified)
	t.UpdatedAt = fromMillis(updated)
	return &t, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
